package broker

import (
	"container/heap"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/wire"
)

// shardHit pairs a wire.Document with the shard and position it was
// read from. The wire format carries no globalDocId, so (shardID,
// position-within-shard-list) stands in for it: the searcher already
// sorted each shard's list by the same phased sort key, so position is
// a valid deterministic tie-break surrogate.
type shardHit struct {
	doc      wire.Document
	shardID  int
	position int
}

// compareAny orders two sort-tuple components of the same dynamic type
// (float64 or string, the only kinds toWireDocument ever produces).
func compareAny(a, b any) int {
	switch av := a.(type) {
	case float64:
		bv, _ := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv, _ := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// lessSortTuple reports whether a ranks strictly before b under
// directions, the per-component ascending/descending flags carried by
// the query's phased sort. A nil component sorts last regardless of
// direction.
func lessSortTuple(a, b []any, directions []query.Direction) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := a[i], b[i]
		if av == nil && bv == nil {
			continue
		}
		if av == nil {
			return false
		}
		if bv == nil {
			return true
		}
		cmp := compareAny(av, bv)
		if cmp == 0 {
			continue
		}
		dir := query.Asc
		if i < len(directions) {
			dir = directions[i]
		}
		if dir == query.Desc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

// better reports whether x should rank ahead of y: its sort tuple
// compares strictly before y's, or the tuples tie and (shardId,
// position) breaks the tie.
func better(x, y shardHit, directions []query.Direction) bool {
	if lessSortTuple(x.doc.SortByValues, y.doc.SortByValues, directions) {
		return true
	}
	if lessSortTuple(y.doc.SortByValues, x.doc.SortByValues, directions) {
		return false
	}
	if x.shardID != y.shardID {
		return x.shardID < y.shardID
	}
	return x.position < y.position
}

type mergeHeapItem struct {
	hit     shardHit
	listIdx int
}

type mergeHeap struct {
	items      []mergeHeapItem
	directions []query.Direction
}

func (h *mergeHeap) Len() int { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool {
	return better(h.items[i].hit, h.items[j].hit, h.directions)
}
func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x any)    { h.items = append(h.items, x.(mergeHeapItem)) }
func (h *mergeHeap) Pop() any {
	n := len(h.items)
	it := h.items[n-1]
	h.items = h.items[:n-1]
	return it
}

// kWayMerge merges per-shard ordered lists into a single globally
// ordered list via a bounded min-heap over (sortKey, shardId,
// position), draining a list as soon as it's exhausted. A want <= 0
// merges every element; otherwise the merge stops after want elements.
func kWayMerge(lists [][]shardHit, directions []query.Direction, want int) []shardHit {
	h := &mergeHeap{directions: directions}
	cursors := make([]int, len(lists))
	for li, list := range lists {
		if len(list) > 0 {
			heap.Push(h, mergeHeapItem{hit: list[0], listIdx: li})
			cursors[li] = 1
		}
	}
	var out []shardHit
	for h.Len() > 0 && (want <= 0 || len(out) < want) {
		it := heap.Pop(h).(mergeHeapItem)
		out = append(out, it.hit)
		li := it.listIdx
		if cursors[li] < len(lists[li]) {
			heap.Push(h, mergeHeapItem{hit: lists[li][cursors[li]], listIdx: li})
			cursors[li]++
		}
	}
	return out
}

// dedup collapses hits (already in merged order) to one entry per
// primary key per policy. DedupNone is a no-op; DedupFirstSeen keeps
// each key's earliest occurrence in merged order; DedupMaxScore keeps
// the highest-scoring occurrence, ties breaking toward the earlier
// occurrence in merged order (which already encodes the shardId/position
// tie-break).
func dedup(hits []shardHit, policy query.DedupPolicy) []shardHit {
	if policy == query.DedupNone {
		return hits
	}
	winner := make(map[string]int, len(hits)) // primary key -> index into out
	var out []shardHit
	for _, h := range hits {
		if idx, seen := winner[h.doc.PrimaryKey]; seen {
			if policy == query.DedupMaxScore && h.doc.Score > out[idx].doc.Score {
				out[idx] = h
			}
			continue
		}
		winner[h.doc.PrimaryKey] = len(out)
		out = append(out, h)
	}
	return out
}

// aggregateFacets sums per-(field, value) counts across shard responses
// and marks the aggregate approximate if any shard reported so.
func aggregateFacets(responses []wire.SearcherResponse) ([]wire.Facet, bool) {
	counts := make(map[string]map[string]int64)
	var fieldOrder []string
	approximate := false
	for _, r := range responses {
		if r.FacetsApproximate {
			approximate = true
		}
		for _, f := range r.Facets {
			bucket, ok := counts[f.Field]
			if !ok {
				bucket = make(map[string]int64)
				counts[f.Field] = bucket
				fieldOrder = append(fieldOrder, f.Field)
			}
			for value, c := range f.Counts {
				bucket[value] += c
			}
		}
	}
	out := make([]wire.Facet, 0, len(fieldOrder))
	for _, field := range fieldOrder {
		out = append(out, wire.Facet{Field: field, Counts: counts[field]})
	}
	return out, approximate
}
