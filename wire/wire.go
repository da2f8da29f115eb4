// Package wire defines the request/response DTOs exchanged between
// client, broker and searcher, and the FLAT_NORMALIZED(+COMPRESSED)
// codec those DTOs are serialized with.
package wire

import (
	"github.com/dzlab/searchcore/collect"
	"github.com/dzlab/searchcore/query"
)

// Format selects the wire encoding.
type Format int

const (
	FlatNormalized Format = iota
	FlatNormalizedCompressed
)

// Document is the wire shape of one search hit. Children are not nested
// inline: they're carried in a sibling flat collection and referenced by
// index via ChildDocumentOffsets, so a child shared by several parents
// is serialized once. Only one level is carried: see Flatten.
type Document struct {
	PrimaryKey           string         `json:"primaryKey"`
	Fields               map[string]any `json:"fields,omitempty"`
	SortByValues         []any          `json:"sortByValues,omitempty"`
	Score                float64        `json:"score"`
	ChildDocumentOffsets []int          `json:"childDocumentOffsets,omitempty"`
}

// NamespaceHitCount reports the match count contributed by one namespace
// (the outer namespace, or an inner join namespace).
type NamespaceHitCount struct {
	Namespace string `json:"namespace"`
	Count     int    `json:"count"`
}

// Facet is the wire shape of one aggregated facet accumulator.
type Facet struct {
	Field  string           `json:"field"`
	Counts map[string]int64 `json:"counts"`
}

// RouteHint is the wire shape of a routing hint.
type RouteHint struct {
	Kind          string `json:"kind"` // "none" | "by_key" | "by_micro_shard_ids"
	Key           string `json:"key,omitempty"`
	MicroShardIDs []int  `json:"microShardIds,omitempty"`
}

const (
	RouteHintNone            = "none"
	RouteHintByKey           = "by_key"
	RouteHintByMicroShardIDs = "by_micro_shard_ids"
)

// SearcherRequest is one shard's searcher RPC input.
type SearcherRequest struct {
	ShardID        int                `json:"shardId"`
	Namespace      string             `json:"namespace"`
	Query          *query.SearchQuery `json:"searchQuery"`
	IncludeMetrics bool               `json:"includeMetrics"`
	Format         Format             `json:"format"`
	PruningBudget  int                `json:"pruningBudget,omitempty"`
}

// SearcherResponse is one shard's searcher RPC output.
type SearcherResponse struct {
	ShardID                      int                 `json:"shardId"`
	Documents                    []Document          `json:"documents"`
	Children                     []Document          `json:"children,omitempty"`
	TotalMatchedDocuments        int                 `json:"totalMatchedDocuments"`
	MatchedDocumentsPerNamespace []NamespaceHitCount `json:"matchedDocumentsPerNamespace,omitempty"`
	Facets                       []Facet             `json:"facets,omitempty"`
	FacetsApproximate            bool                `json:"facetsApproximate,omitempty"`
	Metrics                      map[string]float64  `json:"metrics,omitempty"`
}

// BrokerRequest is the client-facing request.
type BrokerRequest struct {
	Namespace      string             `json:"namespace"`
	Query          *query.SearchQuery `json:"searchQuery"`
	Route          *RouteHint         `json:"route,omitempty"`
	IncludeMetrics bool               `json:"includeMetrics"`
	Format         Format             `json:"format"`
}

// BrokerResponse is the client-facing response.
type BrokerResponse struct {
	Documents                    []Document          `json:"documents"`
	Children                     []Document          `json:"children,omitempty"`
	TotalMatchedDocuments        int                 `json:"totalMatchedDocuments"`
	MatchedDocumentsPerNamespace []NamespaceHitCount `json:"matchedDocumentsPerNamespace,omitempty"`
	Facets                       []Facet             `json:"facets,omitempty"`
	FacetsApproximate            bool                `json:"facetsApproximate,omitempty"`
	Partial                      bool                `json:"partial"`
	Metrics                      map[string]float64  `json:"metrics,omitempty"`
}

// Flatten converts collected/hydrated documents into the wire's
// parent/children split: every distinct child document (deduplicated by
// pointer identity, since the collector may attach the same child to
// several parents) is emitted once into children, and each parent's
// ChildDocumentOffsets index into that shared slice. Only the parents'
// direct children are emitted: a child's own Children are not, and
// children carry no ChildDocumentOffsets.
func Flatten(docs []*collect.Document) (parents []Document, children []Document) {
	childIndex := make(map[*collect.Document]int)
	for _, d := range docs {
		for _, list := range d.Children {
			for _, c := range list {
				if _, ok := childIndex[c]; ok {
					continue
				}
				childIndex[c] = len(children)
				children = append(children, toWireDocument(c))
			}
		}
	}
	parents = make([]Document, 0, len(docs))
	for _, d := range docs {
		wd := toWireDocument(d)
		for _, list := range d.Children {
			for _, c := range list {
				wd.ChildDocumentOffsets = append(wd.ChildDocumentOffsets, childIndex[c])
			}
		}
		parents = append(parents, wd)
	}
	return parents, children
}

func toWireDocument(d *collect.Document) Document {
	sortVals := make([]any, len(d.SortKey))
	for i, sk := range d.SortKey {
		switch sk.Kind {
		case collect.SortKeyNumber:
			sortVals[i] = sk.Num
		case collect.SortKeyString:
			sortVals[i] = sk.Str
		default:
			sortVals[i] = nil
		}
	}
	return Document{
		PrimaryKey:   d.PrimaryKey,
		Fields:       d.ReturnFields,
		SortByValues: sortVals,
		Score:        d.Score,
	}
}

// FacetsToWire converts the collector's facet accumulator map into the
// wire's ordered slice shape.
func FacetsToWire(facets map[string]*collect.FacetResult) []Facet {
	out := make([]Facet, 0, len(facets))
	for field, fr := range facets {
		out = append(out, Facet{Field: field, Counts: fr.Counts})
	}
	return out
}
