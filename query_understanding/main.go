// Package query_understanding turns a client's raw free-text query into
// the structured query.SearchQuery the broker's planner expects, by
// running it through a configured sequence of text-analysis stages
// (see the processing subpackage) and wrapping the result in a single
// MUST keyword group.
package query_understanding

import (
	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/query_understanding/config"
	"github.com/dzlab/searchcore/query_understanding/processing"
)

// BuildSearchQuery runs rawQuery through the named pipeline in cfg and
// returns a SearchQuery over namespace carrying the resulting terms as
// a single required keyword group. Callers typically layer further
// query.SearchQuery fields (filters, sort, limit) onto the result
// before handing it to the planner.
func BuildSearchQuery(executor *processing.PipelineExecutor, cfg *config.Configuration, pipelineName, namespace, rawQuery string) (*query.SearchQuery, error) {
	group, err := executor.ExecutePipeline(pipelineName, rawQuery, cfg)
	if err != nil {
		return nil, err
	}
	return &query.SearchQuery{
		Namespace: namespace,
		Keywords:  query.Keywords{Groups: []query.KeywordGroup{group}},
	}, nil
}
