package join

import (
	"context"
	"testing"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/segindex"
	"github.com/dzlab/searchcore/segindex/memsnap"
)

func testSchema() *schema.Schema {
	return &schema.Schema{Namespaces: map[string]schema.Namespace{
		"products": {
			Name:       "products",
			PrimaryKey: "id",
			Fields: []schema.Field{
				{Name: "id", Type: schema.String},
				{Name: "title", Type: schema.String},
				{Name: "store_id", Type: schema.String, DocValues: true},
			},
			ForeignKeys: []schema.ForeignKey{
				{Name: "store_id", Container: schema.Scalar, Children: []string{"stores"}},
			},
		},
		"stores": {
			Name:       "stores",
			PrimaryKey: "id",
			Fields: []schema.Field{
				{Name: "id", Type: schema.String},
				{Name: "region", Type: schema.String},
			},
		},
	}}
}

type fakeSource struct {
	byNamespace map[string]*memsnap.Reader
}

func (s *fakeSource) Segments(namespace string) ([]segindex.SegmentReader, func(int) int, error) {
	r := s.byNamespace[namespace]
	return r.Leaves(), r.BaseOf, nil
}

func newFixture() *fakeSource {
	products := memsnap.NewSegment([]memsnap.Doc{
		{LocalID: 0, Fields: map[string]any{"id": "p1", "title": "Widget", "store_id": "s1"}},
		{LocalID: 1, Fields: map[string]any{"id": "p2", "title": "Gadget", "store_id": "s2"}},
	})
	stores := memsnap.NewSegment([]memsnap.Doc{
		{LocalID: 0, Fields: map[string]any{"id": "s1", "region": "west"}},
		{LocalID: 1, Fields: map[string]any{"id": "s2", "region": "east"}},
	})
	return &fakeSource{byNamespace: map[string]*memsnap.Reader{
		"products": memsnap.NewReader(products),
		"stores":   memsnap.NewReader(stores),
	}}
}

func TestExecute_NoJoin(t *testing.T) {
	e := &Executor{Schema: testSchema(), Segments: newFixture()}
	q := &query.SearchQuery{
		Namespace:    "products",
		Filter:       nil,
		Limit:        10,
		ReturnFields: []string{"title"},
		PhasedSortBy: []query.PhasedSortKey{{Kind: query.SortByDocID, Direction: query.Asc}},
	}
	res, err := e.Execute(context.Background(), q, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
}

func TestExecute_JoinAttachesChildAndFiltersByInnerResults(t *testing.T) {
	e := &Executor{Schema: testSchema(), Segments: newFixture()}
	innerQ := &query.SearchQuery{
		Namespace: "stores",
		Filter:    &query.Filter{Kind: query.FilterTerm, Field: "region", Value: "west"},
		Limit:     10,
	}
	outerQ := &query.SearchQuery{
		Namespace:    "products",
		Join:         &query.Join{InnerSearchQueries: []*query.SearchQuery{innerQ}},
		Limit:        10,
		ReturnFields: []string{"title"},
		PhasedSortBy: []query.PhasedSortKey{{Kind: query.SortByDocID, Direction: query.Asc}},
	}
	res, err := e.Execute(context.Background(), outerQ, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// only p1 has store_id=s1, the sole store matching region=west.
	if len(res.Documents) != 1 || res.Documents[0].PrimaryKey != "p1" {
		t.Fatalf("expected only p1 to survive the join filter, got %v", res.Documents)
	}
	children := res.Documents[0].Children["store_id"]
	if len(children) != 1 || children[0].PrimaryKey != "s1" {
		t.Fatalf("expected p1 to have child store s1 attached, got %+v", children)
	}
}

func TestExecute_DepthExceeded(t *testing.T) {
	e := &Executor{Schema: testSchema(), Segments: newFixture(), MaxDepth: 1}
	q := &query.SearchQuery{Namespace: "products", Limit: 10}
	_, err := e.Execute(context.Background(), q, 2)
	if err == nil {
		t.Fatal("expected depth-exceeded error")
	}
}

func TestExecute_UnknownNamespace(t *testing.T) {
	e := &Executor{Schema: testSchema(), Segments: newFixture()}
	q := &query.SearchQuery{Namespace: "nope", Limit: 10}
	_, err := e.Execute(context.Background(), q, 0)
	if err == nil {
		t.Fatal("expected unknown-namespace error")
	}
}
