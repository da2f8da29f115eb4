package compile

import (
	"testing"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Namespaces: map[string]schema.Namespace{
			"item": {
				Name:       "item",
				PrimaryKey: "id",
				Fields: []schema.Field{
					{Name: "id", Type: schema.String},
					{Name: "store_id", Type: schema.String},
					{Name: "menu_id", Type: schema.Int64},
				},
				ForeignKeys: []schema.ForeignKey{
					{Name: "store_id", Children: []string{"store"}},
				},
			},
			"store": {
				Name:       "store",
				PrimaryKey: "id",
				Fields: []schema.Field{
					{Name: "id", Type: schema.String},
					{Name: "rating", Type: schema.Double},
					{Name: "menu_id", Type: schema.Int64},
				},
			},
		},
	}
}

func TestCompile_JoinInjectsForeignKeyFilter(t *testing.T) {
	sc := testSchema()
	q := &query.SearchQuery{
		Namespace: "item",
		Join: &query.Join{InnerSearchQueries: []*query.SearchQuery{{Namespace: "store"}}},
	}
	inner := InnerResults{PrimaryKeys: map[string][]string{"store": {"s3", "s1", "s1"}}}
	plan, err := Compile(sc, q, inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Root.Kind != NodeBoolean {
		t.Fatalf("expected boolean root, got %v", plan.Root.Kind)
	}
	var found *Node
	for _, c := range plan.Root.Clauses {
		if c.Node.Kind == NodeTermInSet && c.Node.Field == "store_id" {
			found = c.Node
		}
	}
	if found == nil {
		t.Fatal("expected injected store_id TermInSet clause")
	}
	if len(found.Values) != 2 || found.Values[0] != "s1" || found.Values[1] != "s3" {
		t.Fatalf("expected deduped sorted [s1 s3], got %v", found.Values)
	}
}

func TestCompile_ReferenceFieldInSet(t *testing.T) {
	sc := testSchema()
	f := query.Filter{Kind: query.FilterReferenceFieldInSet, Field: "menu_id", RefNamespace: "store", RefField: "menu_id"}
	q := &query.SearchQuery{Namespace: "item", Filter: &f}
	inner := InnerResults{Fields: map[string]map[string][]string{
		"store": {"menu_id": {"7", "12", "7"}},
	}}
	plan, err := Compile(sc, q, inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Root.Kind != NodeTermInSet || plan.Root.Field != "menu_id" {
		t.Fatalf("expected TermInSet(menu_id), got %+v", plan.Root)
	}
	if len(plan.Root.Values) != 2 {
		t.Fatalf("expected 2 distinct values, got %v", plan.Root.Values)
	}
}

func TestCompile_AmbiguousForeignKeyPicksDeterministic(t *testing.T) {
	sc := testSchema()
	ns := sc.Namespaces["item"]
	ns.ForeignKeys = append(ns.ForeignKeys, schema.ForeignKey{Name: "alt_store_id", Children: []string{"store"}})
	sc.Namespaces["item"] = ns

	fk, err := ForeignKeyFor(ns, "store")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fk.Name != "alt_store_id" {
		t.Fatalf("expected deterministic alphabetically-first choice alt_store_id, got %s", fk.Name)
	}
}

func TestCompile_UnknownNamespace(t *testing.T) {
	sc := testSchema()
	_, err := Compile(sc, &query.SearchQuery{Namespace: "nope"}, InnerResults{})
	if err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}
