package collect

import (
	"context"

	"github.com/dzlab/searchcore/compile"
	"github.com/dzlab/searchcore/segindex"
)

// ForeignKeyBound binds one active join's foreign-key column to the
// already-resolved child documents it should attach, materialized
// once per shard per request, not per segment.
type ForeignKeyBound struct {
	ForeignKeyField   string
	ChildByPrimaryKey map[string]*Document
}

// Result is the collector's output for one shard: up to limit+offset
// ordered candidates, a total-hits estimate, and facet accumulators.
type Result struct {
	Documents         []*Document
	TotalHits         int
	Facets            map[string]*FacetResult
	FacetsApproximate bool
}

// Collector runs the match+rank algorithm over a shard's segments.
type Collector struct {
	PrimaryKeyField    string
	ForeignKeyBounds   []ForeignKeyBound
	ContextFeatures    map[string]float64
	TotalHitsThreshold int
}

// childCacheKey identifies a (segment, foreign-key field, ordinal)
// triple for the per-segment ordinal->child cache: caching ordinal ->
// child per segment avoids repeated lookup across documents.
type childCacheKey struct {
	leafOrd int
	field   string
	ord     int
}

// Collect scans every segment in leafOrd order, maintaining a bounded
// top-K per segment and merging into a shard-global top-K.
func (c *Collector) Collect(ctx context.Context, segs []segindex.SegmentReader, baseOf func(leafOrd int) int, plan *compile.Plan) (*Result, error) {
	shardTopK := NewBoundedTopK(plan.Limit + plan.Offset)
	facetAcc := newFacetAccumulator(plan.Facet, c.TotalHitsThreshold)
	totalHits := 0
	childCache := make(map[childCacheKey]*Document)

	for leafOrd, seg := range segs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := evalNode(ctx, seg, plan.Root)
		if err != nil {
			return nil, err
		}

		base := baseOf(leafOrd)
		segTopK := NewBoundedTopK(plan.Limit + plan.Offset)

		for _, localID := range bitmapDocs(res.docs) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			totalHits++
			facetAcc.Add(seg, localID)

			score := 0.0
			if plan.ScoringRequired {
				score = res.scores[uint32(localID)]
			}
			sortKey := BuildSortKey(plan.PhasedSortBy, score, base+localID, localID, seg, c.ContextFeatures)
			candidate := &Document{
				LeafOrd:     leafOrd,
				LeafDocID:   localID,
				GlobalDocID: base + localID,
				Score:       score,
				SortKey:     sortKey,
			}
			if !segTopK.WouldAccept(candidate) {
				continue
			}
			candidate.PrimaryKey = resolvePrimaryKey(seg, localID, c.PrimaryKeyField)
			c.bindChildren(seg, leafOrd, localID, candidate, childCache)
			segTopK.Offer(candidate)
		}

		for _, d := range segTopK.Drain() {
			shardTopK.Offer(d)
		}
	}

	facets, approx := facetAcc.Results()
	return &Result{
		Documents:         shardTopK.Drain(),
		TotalHits:         totalHits,
		Facets:            facets,
		FacetsApproximate: approx,
	}, nil
}

func resolvePrimaryKey(seg segindex.SegmentReader, leafDocID int, field string) string {
	if field == "" {
		return ""
	}
	if bdv, err := seg.BinaryDocValues(field); err == nil {
		if v, ok := bdv.Get(leafDocID); ok {
			return string(v)
		}
	}
	return ""
}

// bindChildren attaches resolved child documents to doc for every active
// join: position the foreign-key sorted-set column at leafDocID,
// translate each ordinal to its value, and look up the pre-materialized
// child by primary key.
func (c *Collector) bindChildren(seg segindex.SegmentReader, leafOrd, leafDocID int, doc *Document, cache map[childCacheKey]*Document) {
	for _, bound := range c.ForeignKeyBounds {
		ssdv, err := seg.SortedSetDocValues(bound.ForeignKeyField)
		if err != nil {
			continue
		}
		for _, ord := range ssdv.Ordinals(leafDocID) {
			key := childCacheKey{leafOrd, bound.ForeignKeyField, ord}
			child, cached := cache[key]
			if !cached {
				value := ssdv.LookupOrdinal(ord)
				child = bound.ChildByPrimaryKey[value]
				cache[key] = child
			}
			if child == nil {
				continue // cross-shard or non-matching child: skip silently
			}
			if doc.Children == nil {
				doc.Children = make(map[string][]*Document)
			}
			doc.Children[bound.ForeignKeyField] = append(doc.Children[bound.ForeignKeyField], child)
		}
	}
}
