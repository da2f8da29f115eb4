// Package compile lowers a validated query.SearchQuery, together with
// join results, into a segment-executable Plan tree.
package compile

import (
	"fmt"
	"sort"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/schema"
)

// NodeKind discriminates a compiled plan node.
type NodeKind int

const (
	NodeMatchAll NodeKind = iota
	NodeTerm
	NodeTermInSet
	NodeRange
	NodeGeo
	NodeVector
	NodeBoolean
)

// ClauseWeight pairs a compiled child node with the occur that produced
// it, so the collector knows whether it contributes to score.
type ClauseWeight struct {
	Occur query.Occur
	Node  *Node
}

// Node is one compiled plan node. Only the fields relevant to Kind are
// populated.
type Node struct {
	Kind NodeKind

	Field  string
	Value  string
	Values []string

	Lo, Hi float64

	Lat, Lon, Meters float64

	VectorTarget []float32
	VectorK      int
	VectorFilter *Node

	Clauses        []ClauseWeight
	MinShouldMatch int
}

// Plan is the root of a compiled query, plus the bits of the original
// AST the collector needs directly (sort, limit/offset, facets, return
// fields) that aren't part of the boolean/term tree.
type Plan struct {
	Namespace       string
	Root            *Node
	ScoringRequired bool
	PhasedSortBy    []query.PhasedSortKey
	Limit, Offset   int
	Facet           []query.FacetSpec
	ReturnFields    []string
}

// InnerResults is the output of the join executor: for each namespace,
// the distinct primary keys (and any hydrated fields needed for
// reference-field projection) of its inner query's matches.
type InnerResults struct {
	// PrimaryKeys maps namespace -> distinct primary key set.
	PrimaryKeys map[string][]string
	// Fields maps namespace -> field name -> distinct values seen across
	// the inner results, used to materialize ReferenceFieldInSet.
	Fields map[string]map[string][]string
}

// Compile lowers q (already planned) into a segment-executable Plan.
func Compile(sc *schema.Schema, q *query.SearchQuery, inner InnerResults) (*Plan, error) {
	ns, ok := sc.Namespace(q.Namespace)
	if !ok {
		return nil, fmt.Errorf("compile: unknown namespace %q", q.Namespace)
	}

	root, err := compileFilter(sc, ns, q.Filter, inner)
	if err != nil {
		return nil, err
	}

	if q.Join != nil {
		for _, iq := range q.Join.InnerSearchQueries {
			fk, err := ForeignKeyFor(ns, iq.Namespace)
			if err != nil {
				return nil, err
			}
			keys := inner.PrimaryKeys[iq.Namespace]
			injected := ClauseWeight{Occur: query.FILTERocc, Node: &Node{
				Kind: NodeTermInSet, Field: fk.Name, Values: dedupe(keys),
			}}
			root = ensureBoolean(root)
			root.Clauses = append(root.Clauses, injected)
		}
	}

	for _, kwGroup := range q.Keywords.Groups {
		node := &Node{Kind: NodeBoolean, MinShouldMatch: kwGroup.MinShouldMatch}
		for _, kw := range kwGroup.Keywords {
			node.Clauses = append(node.Clauses, ClauseWeight{Occur: query.SHOULD, Node: &Node{Kind: NodeTerm, Field: "_keywords", Value: kw}})
		}
		root = ensureBoolean(root)
		root.Clauses = append(root.Clauses, ClauseWeight{Occur: kwGroup.Occur, Node: node})
	}

	for _, vq := range q.Keywords.VectorQueries {
		vn, err := compileVectorQuery(sc, ns, vq, inner)
		if err != nil {
			return nil, err
		}
		root = ensureBoolean(root)
		root.Clauses = append(root.Clauses, ClauseWeight{Occur: query.SHOULD, Node: vn})
	}

	if root == nil {
		root = &Node{Kind: NodeMatchAll}
	}

	return &Plan{
		Namespace:       ns.Name,
		Root:            root,
		ScoringRequired: q.ScoringRequired,
		PhasedSortBy:    q.PhasedSortBy,
		Limit:           q.Limit,
		Offset:          q.Offset,
		Facet:           q.Facet,
		ReturnFields:    q.ReturnFields,
	}, nil
}

func ensureBoolean(n *Node) *Node {
	if n == nil {
		return &Node{Kind: NodeBoolean}
	}
	if n.Kind == NodeBoolean {
		return n
	}
	return &Node{Kind: NodeBoolean, Clauses: []ClauseWeight{{Occur: query.MUST, Node: n}}}
}

// ForeignKeyFor resolves the foreign key on ns pointing at
// childNamespace: a deterministic choice among several candidates
// (lexicographically smallest name, since ForeignKeysTo already sorts),
// or an error if none exists. Shared with package join, which needs the
// same resolution to build child-binding maps.
func ForeignKeyFor(ns schema.Namespace, childNamespace string) (schema.ForeignKey, error) {
	candidates := ns.ForeignKeysTo(childNamespace)
	if len(candidates) == 0 {
		return schema.ForeignKey{}, fmt.Errorf("compile: namespace %q has no foreign key to child namespace %q", ns.Name, childNamespace)
	}
	return candidates[0], nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func compileFilter(sc *schema.Schema, ns schema.Namespace, f *query.Filter, inner InnerResults) (*Node, error) {
	if f == nil {
		return nil, nil
	}
	switch f.Kind {
	case query.FilterTerm:
		return &Node{Kind: NodeTerm, Field: f.Field, Value: f.Value}, nil
	case query.FilterTermInSet:
		return &Node{Kind: NodeTermInSet, Field: f.Field, Values: dedupe(f.Values)}, nil
	case query.FilterPointRange:
		return &Node{Kind: NodeRange, Field: f.Field, Lo: f.Lo, Hi: f.Hi}, nil
	case query.FilterGeoDistance:
		return &Node{Kind: NodeGeo, Field: f.Field, Lat: f.Lat, Lon: f.Lon, Meters: f.Meters}, nil
	case query.FilterVector:
		return compileVectorQuery(sc, ns, *f.VectorQuery, inner)
	case query.FilterBoolean:
		node := &Node{Kind: NodeBoolean, MinShouldMatch: f.MinShouldMatch}
		for _, c := range f.Clauses {
			child, err := compileFilter(sc, ns, &c.Filter, inner)
			if err != nil {
				return nil, err
			}
			node.Clauses = append(node.Clauses, ClauseWeight{Occur: c.Occur, Node: child})
		}
		return node, nil
	case query.FilterReferenceFieldInSet:
		values := dedupe(inner.Fields[f.RefNamespace][f.RefField])
		return &Node{Kind: NodeTermInSet, Field: f.Field, Values: values}, nil
	default:
		return nil, fmt.Errorf("compile: unknown filter kind %d", f.Kind)
	}
}

func compileVectorQuery(sc *schema.Schema, ns schema.Namespace, vq query.VectorQuery, inner InnerResults) (*Node, error) {
	node := &Node{Kind: NodeVector, Field: vq.Field, VectorTarget: vq.Target, VectorK: vq.K}
	if vq.Filter != nil {
		fn, err := compileFilter(sc, ns, vq.Filter, inner)
		if err != nil {
			return nil, err
		}
		node.VectorFilter = fn
	}
	return node, nil
}
