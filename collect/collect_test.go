package collect

import (
	"context"
	"testing"

	"github.com/dzlab/searchcore/compile"
	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/segindex/memsnap"
)

func scoredByTermSegment() *memsnap.Segment {
	return memsnap.NewSegment([]memsnap.Doc{
		{LocalID: 0, Fields: map[string]any{"id": "A", "store_id": "s1"}},
		{LocalID: 1, Fields: map[string]any{"id": "B", "store_id": "s2"}},
		{LocalID: 2, Fields: map[string]any{"id": "C", "store_id": "s1"}},
	})
}

func TestCollect_TermInSetMatchesAndHydratesPrimaryKey(t *testing.T) {
	seg := scoredByTermSegment()
	reader := memsnap.NewReader(seg)
	plan := &compile.Plan{
		Root:         &compile.Node{Kind: compile.NodeTermInSet, Field: "store_id", Values: []string{"s1"}},
		Limit:        10,
		PhasedSortBy: []query.PhasedSortKey{{Kind: query.SortByDocID, Direction: query.Asc}},
	}
	c := &Collector{PrimaryKeyField: "id"}
	res, err := c.Collect(context.Background(), reader.Leaves(), reader.BaseOf, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
	if res.Documents[0].PrimaryKey != "A" || res.Documents[1].PrimaryKey != "C" {
		t.Fatalf("expected [A, C] ascending by docid, got %v, %v", res.Documents[0].PrimaryKey, res.Documents[1].PrimaryKey)
	}
}

func TestCollect_FilterScoreSeparation(t *testing.T) {
	// a pure FILTER query scores everything 0 and ties break on
	// globalDocId ascending.
	seg := scoredByTermSegment()
	reader := memsnap.NewReader(seg)
	plan := &compile.Plan{
		Root: &compile.Node{Kind: compile.NodeBoolean, Clauses: []compile.ClauseWeight{
			{Occur: query.FILTERocc, Node: &compile.Node{Kind: compile.NodeTermInSet, Field: "store_id", Values: []string{"s1"}}},
		}},
		Limit:           10,
		ScoringRequired: false,
		PhasedSortBy:    []query.PhasedSortKey{{Kind: query.SortByScore, Direction: query.Desc}},
	}
	c := &Collector{PrimaryKeyField: "id"}
	res, err := c.Collect(context.Background(), reader.Leaves(), reader.BaseOf, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
	for _, d := range res.Documents {
		if d.Score != 0 {
			t.Fatalf("expected score 0 for pure-filter query, got %v", d.Score)
		}
	}
	if res.Documents[0].GlobalDocID >= res.Documents[1].GlobalDocID {
		t.Fatalf("expected ascending globalDocId tie-break, got %d then %d", res.Documents[0].GlobalDocID, res.Documents[1].GlobalDocID)
	}
}

func TestCollect_MustNotExcludes(t *testing.T) {
	seg := scoredByTermSegment()
	reader := memsnap.NewReader(seg)
	plan := &compile.Plan{
		Root: &compile.Node{Kind: compile.NodeBoolean, Clauses: []compile.ClauseWeight{
			{Occur: query.MUSTNOT, Node: &compile.Node{Kind: compile.NodeTerm, Field: "store_id", Value: "s1"}},
		}},
		Limit:        10,
		PhasedSortBy: []query.PhasedSortKey{{Kind: query.SortByDocID, Direction: query.Asc}},
	}
	c := &Collector{PrimaryKeyField: "id"}
	res, err := c.Collect(context.Background(), reader.Leaves(), reader.BaseOf, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 1 || res.Documents[0].PrimaryKey != "B" {
		t.Fatalf("expected only B to survive MUST_NOT store_id=s1, got %v", res.Documents)
	}
}

func TestCollect_ChildBinding(t *testing.T) {
	seg := scoredByTermSegment()
	reader := memsnap.NewReader(seg)
	plan := &compile.Plan{
		Root:         &compile.Node{Kind: compile.NodeMatchAll},
		Limit:        10,
		PhasedSortBy: []query.PhasedSortKey{{Kind: query.SortByDocID, Direction: query.Asc}},
	}
	c := &Collector{
		PrimaryKeyField: "id",
		ForeignKeyBounds: []ForeignKeyBound{
			{ForeignKeyField: "store_id", ChildByPrimaryKey: map[string]*Document{
				"s1": {PrimaryKey: "s1"},
			}},
		},
	}
	res, err := c.Collect(context.Background(), reader.Leaves(), reader.BaseOf, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range res.Documents {
		if d.PrimaryKey == "A" || d.PrimaryKey == "C" {
			if len(d.Children["store_id"]) != 1 || d.Children["store_id"][0].PrimaryKey != "s1" {
				t.Fatalf("expected %s to have store_id child s1, got %+v", d.PrimaryKey, d.Children)
			}
		}
		if d.PrimaryKey == "B" {
			if len(d.Children["store_id"]) != 0 {
				t.Fatalf("expected B to have no child (s2 not in ChildByPrimaryKey), got %+v", d.Children)
			}
		}
	}
}

func TestCollect_PureShouldRequiresAMatch(t *testing.T) {
	// A Boolean node built entirely from SHOULD clauses (the shape a
	// keyword group compiles to) must not match every document just
	// because MinShouldMatch was left at its zero value.
	seg := scoredByTermSegment()
	reader := memsnap.NewReader(seg)
	plan := &compile.Plan{
		Root: &compile.Node{Kind: compile.NodeBoolean, Clauses: []compile.ClauseWeight{
			{Occur: query.SHOULD, Node: &compile.Node{Kind: compile.NodeTerm, Field: "store_id", Value: "s1"}},
		}},
		Limit:        10,
		PhasedSortBy: []query.PhasedSortKey{{Kind: query.SortByDocID, Direction: query.Asc}},
	}
	c := &Collector{PrimaryKeyField: "id"}
	res, err := c.Collect(context.Background(), reader.Leaves(), reader.BaseOf, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected only the 2 documents matching the SHOULD clause (A, C), got %d: %v", len(res.Documents), res.Documents)
	}
	for _, d := range res.Documents {
		if d.PrimaryKey != "A" && d.PrimaryKey != "C" {
			t.Fatalf("expected only A and C to match store_id=s1, got %v", d.PrimaryKey)
		}
	}
}

func TestCompareSortKeys_MissingSortsLast(t *testing.T) {
	present := SortKeyValue{Kind: SortKeyNumber, Num: 1}
	missing := SortKeyValue{Kind: SortKeyMissing}
	if !CompareSortKeys([]SortKeyValue{present}, []SortKeyValue{missing}) {
		t.Fatal("expected present value to sort before missing")
	}
	if CompareSortKeys([]SortKeyValue{missing}, []SortKeyValue{present}) {
		t.Fatal("expected missing value to never sort before a present value")
	}
}

func TestBoundedTopK_EvictsWorst(t *testing.T) {
	topk := NewBoundedTopK(2)
	mk := func(score float64, id int) *Document {
		return &Document{GlobalDocID: id, SortKey: []SortKeyValue{{Kind: SortKeyNumber, Num: score, Direction: query.Desc}}}
	}
	topk.Offer(mk(1, 0))
	topk.Offer(mk(5, 1))
	topk.Offer(mk(3, 2)) // should evict the score=1 doc
	docs := topk.Drain()
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].GlobalDocID != 1 || docs[1].GlobalDocID != 2 {
		t.Fatalf("expected [1, 2] best-first, got %v, %v", docs[0].GlobalDocID, docs[1].GlobalDocID)
	}
}
