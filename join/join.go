// Package join implements the recursive join executor: for a query with
// nested inner search queries, it evaluates each inner query
// concurrently, builds the primary-key and reference-field projections
// the compiler needs, and attaches the resulting child documents to the
// outer query's matches.
package join

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dzlab/searchcore/collect"
	"github.com/dzlab/searchcore/compile"
	"github.com/dzlab/searchcore/hydrate"
	"github.com/dzlab/searchcore/internal/apierr"
	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/segindex"
)

// SegmentSource resolves the live segments for one namespace's shard-
// local index snapshot, plus its global-doc-id base function.
type SegmentSource interface {
	Segments(namespace string) (segs []segindex.SegmentReader, baseOf func(leafOrd int) int, err error)
}

// Result is one query's materialized, hydrated matches.
type Result struct {
	Documents         []*collect.Document
	TotalHits         int
	Facets            map[string]*collect.FacetResult
	FacetsApproximate bool
	IOFailures        int
}

// Executor runs query.SearchQuery trees, recursing into joins.
type Executor struct {
	Schema              *schema.Schema
	Segments            SegmentSource
	MaxInnerCardinality int
	MaxDepth            int
	TotalHitsThreshold  int
}

const (
	defaultMaxInnerCardinality = 10_000
	defaultMaxDepth            = 4
)

func (e *Executor) maxInnerCardinality() int {
	if e.MaxInnerCardinality > 0 {
		return e.MaxInnerCardinality
	}
	return defaultMaxInnerCardinality
}

func (e *Executor) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}
	return defaultMaxDepth
}

// Execute evaluates q, recursing into any nested join at depth+1.
// Top-level callers pass depth 0.
func (e *Executor) Execute(ctx context.Context, q *query.SearchQuery, depth int) (*Result, error) {
	if depth > e.maxDepth() {
		return nil, fmt.Errorf("join: nesting depth %d exceeds maximum %d: %w", depth, e.maxDepth(), apierr.ErrDepthExceeded)
	}
	ns, ok := e.Schema.Namespace(q.Namespace)
	if !ok {
		return nil, fmt.Errorf("join: unknown namespace %q", q.Namespace)
	}

	inner := compile.InnerResults{
		PrimaryKeys: make(map[string][]string),
		Fields:      make(map[string]map[string][]string),
	}
	childDocsByNamespace := make(map[string]map[string]*collect.Document)

	if q.Join != nil && len(q.Join.InnerSearchQueries) > 0 {
		innerResults, err := e.executeInner(ctx, q.Join.InnerSearchQueries, depth+1)
		if err != nil {
			return nil, err
		}
		for i, iq := range q.Join.InnerSearchQueries {
			res := innerResults[i]
			if len(res.Documents) > e.maxInnerCardinality() {
				return nil, fmt.Errorf("join: inner query on namespace %q produced %d documents, exceeds max %d: %w",
					iq.Namespace, len(res.Documents), e.maxInnerCardinality(), apierr.ErrJoinTooLarge)
			}

			pks := make([]string, 0, len(res.Documents))
			fieldVals := make(map[string][]string)
			byPK := make(map[string]*collect.Document, len(res.Documents))
			for _, d := range res.Documents {
				pks = append(pks, d.PrimaryKey)
				byPK[d.PrimaryKey] = d
				for f, v := range d.ReturnFields {
					if s, ok := v.(string); ok {
						fieldVals[f] = append(fieldVals[f], s)
					}
				}
			}
			inner.PrimaryKeys[iq.Namespace] = pks
			inner.Fields[iq.Namespace] = fieldVals
			childDocsByNamespace[iq.Namespace] = byPK
		}
	}

	plan, err := compile.Compile(e.Schema, q, inner)
	if err != nil {
		return nil, err
	}

	segs, baseOf, err := e.Segments.Segments(q.Namespace)
	if err != nil {
		return nil, fmt.Errorf("join: %w: %v", apierr.ErrIndexUnavailable, err)
	}

	var fkBounds []collect.ForeignKeyBound
	if q.Join != nil {
		for _, iq := range q.Join.InnerSearchQueries {
			fk, err := compile.ForeignKeyFor(ns, iq.Namespace)
			if err != nil {
				return nil, err
			}
			fkBounds = append(fkBounds, collect.ForeignKeyBound{
				ForeignKeyField:   fk.Name,
				ChildByPrimaryKey: childDocsByNamespace[iq.Namespace],
			})
		}
	}

	collector := &collect.Collector{
		PrimaryKeyField:    ns.PrimaryKey,
		ForeignKeyBounds:   fkBounds,
		ContextFeatures:    q.ContextFeatures,
		TotalHitsThreshold: e.TotalHitsThreshold,
	}
	collRes, err := collector.Collect(ctx, segs, baseOf, plan)
	if err != nil {
		return nil, err
	}

	hydrator := &hydrate.Hydrator{Namespace: ns}
	hydrated, stats, err := hydrator.Hydrate(ctx, collRes.Documents, q.ReturnFields, segs)
	if err != nil {
		return nil, err
	}

	return &Result{
		Documents:         hydrated,
		TotalHits:         collRes.TotalHits,
		Facets:            collRes.Facets,
		FacetsApproximate: collRes.FacetsApproximate,
		IOFailures:        stats.IOFailures,
	}, nil
}

// executeInner runs every inner query concurrently, preserving the
// original index->result ordering so callers can zip results back
// against their originating query.
func (e *Executor) executeInner(ctx context.Context, queries []*query.SearchQuery, depth int) ([]*Result, error) {
	results := make([]*Result, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, iq := range queries {
		i, iq := i, iq
		g.Go(func() error {
			res, err := e.Execute(gctx, iq, depth)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
