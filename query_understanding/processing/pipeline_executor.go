package processing

import (
	"fmt"
	"strings"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/query_understanding/config"
)

// PipelineExecutor is responsible for executing a sequence of query processing stages.
type PipelineExecutor struct {
	registry *StageRegistry
}

// NewPipelineExecutor creates a new PipelineExecutor with the given StageRegistry.
func NewPipelineExecutor(registry *StageRegistry) *PipelineExecutor {
	return &PipelineExecutor{
		registry: registry,
	}
}

// ExecutePipeline runs rawQuery through the named pipeline's stages in
// sequence and tokenizes the result into a single MUST keyword group.
func (pe *PipelineExecutor) ExecutePipeline(pipelineName string, rawQuery string, cfg *config.Configuration) (query.KeywordGroup, error) {
	var pipeline *config.QueryPlanningPipeline
	for i := range cfg.QueryPlanningPipelines {
		if cfg.QueryPlanningPipelines[i].Name == pipelineName {
			pipeline = &cfg.QueryPlanningPipelines[i]
			break
		}
	}
	if pipeline == nil {
		return query.KeywordGroup{}, fmt.Errorf("query planning pipeline '%s' not found in configuration", pipelineName)
	}

	currentQuery := rawQuery
	for _, stepName := range pipeline.Steps {
		stage, found := pe.registry.Get(stepName)
		if !found {
			return query.KeywordGroup{}, fmt.Errorf("query stage '%s' not found in registry for pipeline '%s'", stepName, pipelineName)
		}

		processedQuery, err := stage.Process(currentQuery, make(map[string]interface{}))
		if err != nil {
			return query.KeywordGroup{}, fmt.Errorf("failed to execute stage '%s' in pipeline '%s': %w", stepName, pipelineName, err)
		}
		currentQuery = processedQuery
	}

	return query.KeywordGroup{Occur: query.MUST, Keywords: strings.Fields(currentQuery)}, nil
}
