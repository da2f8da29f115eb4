// Package broker implements the scatter-gather entry point: plan the
// client's query, select the shards the route targets, fan the request
// out concurrently, tolerate a minority of shard failures, and merge
// the survivors into one deduplicated, ranked, faceted page.
package broker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dzlab/searchcore/internal/apierr"
	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/shardselect"
	"github.com/dzlab/searchcore/wire"
)

// Broker is the service that accepts client queries, orchestrates calls
// to every shard's searcher, and aggregates the results.
type Broker struct {
	Schema           *schema.Schema
	Selector         *shardselect.Selector
	Planner          *query.Planner
	ReorderLookahead int
}

// NewBroker builds a Broker bound to schema, fanning requests out
// through selector.
func NewBroker(s *schema.Schema, selector *shardselect.Selector) *Broker {
	return &Broker{Schema: s, Selector: selector, Planner: query.NewPlanner(s)}
}

func (b *Broker) lookahead() int {
	if b.ReorderLookahead > 0 {
		return b.ReorderLookahead
	}
	return 50
}

func toRoute(h *wire.RouteHint) shardselect.Route {
	if h == nil {
		return shardselect.Route{Kind: shardselect.RouteNone}
	}
	switch h.Kind {
	case wire.RouteHintByKey:
		return shardselect.Route{Kind: shardselect.RouteByKey, Key: h.Key}
	case wire.RouteHintByMicroShardIDs:
		return shardselect.Route{Kind: shardselect.RouteByMicroShards, MicroShards: h.MicroShardIDs}
	default:
		return shardselect.Route{Kind: shardselect.RouteNone}
	}
}

// Search runs req end to end: plan, select, fanout, merge, page.
func (b *Broker) Search(ctx context.Context, req wire.BrokerRequest) (wire.BrokerResponse, error) {
	plan, err := b.Planner.Plan(req.Query)
	if err != nil {
		return wire.BrokerResponse{}, err
	}

	clients, err := b.Selector.Select(toRoute(req.Route))
	if err != nil {
		return wire.BrokerResponse{}, err
	}
	if len(clients) == 0 {
		return wire.BrokerResponse{}, fmt.Errorf("broker: %w", apierr.ErrIndexUnavailable)
	}

	responses := make([]wire.SearcherResponse, len(clients))
	ok := make([]bool, len(clients))

	g, gctx := errgroup.WithContext(ctx)
	var (
		mu       sync.Mutex
		failures int
	)
	for i, c := range clients {
		i, c := i, c
		g.Go(func() error {
			sreq := wire.SearcherRequest{
				ShardID:        c.ShardID(),
				Namespace:      plan.Namespace,
				Query:          plan,
				IncludeMetrics: req.IncludeMetrics,
				Format:         req.Format,
			}
			resp, searchErr := c.Search(gctx, sreq)
			if searchErr != nil {
				mu.Lock()
				failures++
				exceeded := failures > len(clients)/2
				mu.Unlock()
				if exceeded {
					return fmt.Errorf("broker: %w: %v", apierr.ErrPartialFailure, searchErr)
				}
				return nil
			}
			mu.Lock()
			responses[i] = resp
			ok[i] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return wire.BrokerResponse{}, err
	}

	partial := false
	var succeeded []wire.SearcherResponse
	lists := make([][]shardHit, 0, len(clients))
	totalMatched := 0
	var ioFailures float64
	for i, resp := range responses {
		if !ok[i] {
			partial = true
			continue
		}
		hits := make([]shardHit, len(resp.Documents))
		for j, d := range resp.Documents {
			hits[j] = shardHit{doc: d, shardID: clients[i].ShardID(), position: j}
		}
		lists = append(lists, hits)
		succeeded = append(succeeded, resp)
		totalMatched += resp.TotalMatchedDocuments
		ioFailures += resp.Metrics["io_failures"]
	}

	directions := make([]query.Direction, len(plan.PhasedSortBy))
	for i, k := range plan.PhasedSortBy {
		directions[i] = k.Direction
	}

	merged := kWayMerge(lists, directions, 0)
	merged = dedup(merged, plan.Dedup.Policy)

	facets, facetsApproximate := aggregateFacets(succeeded)

	window := plan.Offset + plan.Limit + b.lookahead()
	if len(plan.Reorderings) > 0 {
		rules, compileErr := compileReorderings(plan.Reorderings)
		if compileErr != nil {
			return wire.BrokerResponse{}, compileErr
		}
		if runErr := applyReorderings(merged, rules, plan.ContextFeatures, window); runErr != nil {
			return wire.BrokerResponse{}, runErr
		}
		resortByScore(merged, window)
	}

	page := paginate(merged, plan.Offset, plan.Limit)
	documents := make([]wire.Document, len(page))
	for i, h := range page {
		documents[i] = h.doc
	}

	resp := wire.BrokerResponse{
		Documents:             documents,
		TotalMatchedDocuments: totalMatched,
		Facets:                facets,
		FacetsApproximate:     facetsApproximate,
		Partial:               partial,
	}
	if req.IncludeMetrics {
		resp.Metrics = map[string]float64{"io_failures": ioFailures}
	}
	return resp, nil
}

func paginate(hits []shardHit, offset, limit int) []shardHit {
	if offset >= len(hits) {
		return nil
	}
	end := len(hits)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return hits[offset:end]
}
