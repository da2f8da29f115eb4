// Package query defines the query AST: a closed algebraic data type
// for structured search queries, plus the planner that validates and
// rewrites them.
package query

// Occur controls whether a boolean clause contributes to scoring.
type Occur int

const (
	MUST Occur = iota
	MUSTNOT
	SHOULD
	FILTERocc
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// SortFieldKind selects what a PhasedSortKey compares on.
type SortFieldKind int

const (
	SortByField SortFieldKind = iota
	SortByScore
	SortByDocID
	SortByContextFeature
)

// PhasedSortKey is one element of the phased sort tuple.
type PhasedSortKey struct {
	Kind      SortFieldKind
	Field     string // used when Kind == SortByField or SortByContextFeature
	Direction Direction
}

// KeywordGroup is an occur-scoped group of keyword terms.
type KeywordGroup struct {
	Occur         Occur
	Keywords      []string
	MinShouldMatch int
}

// VectorQuery is a single ANN query, optionally pre-filtered.
type VectorQuery struct {
	Field  string
	Target []float32
	K      int
	Filter *Filter // optional
}

// FuzzyQuery is an edit-distance keyword match.
type FuzzyQuery struct {
	Field      string
	Value      string
	Fuzziness  int
}

// Keywords bundles every keyword-matching input to a query.
type Keywords struct {
	Groups         []KeywordGroup
	VectorQueries  []VectorQuery
	ClientKeywords []string // analytics/logging echo only; never used for matching or scoring
	FuzzyQueries   []FuzzyQuery
}

// FilterKind discriminates the Filter tagged union.
type FilterKind int

const (
	FilterTerm FilterKind = iota
	FilterTermInSet
	FilterPointRange
	FilterGeoDistance
	FilterVector
	FilterBoolean
	FilterReferenceFieldInSet
)

// BooleanClause pairs an Occur with a nested Filter.
type BooleanClause struct {
	Occur  Occur
	Filter Filter
}

// Filter is the tagged-union filter AST.
type Filter struct {
	Kind FilterKind

	// FilterTerm / FilterTermInSet
	Field  string
	Value  string   // FilterTerm
	Values []string // FilterTermInSet

	// FilterPointRange
	Lo, Hi float64

	// FilterGeoDistance
	Lat, Lon, Meters float64

	// FilterVector
	VectorQuery *VectorQuery

	// FilterBoolean
	Clauses        []BooleanClause
	MinShouldMatch int

	// FilterReferenceFieldInSet
	RefNamespace string
	RefField     string
}

// Term builds a Term filter.
func Term(field, value string) Filter { return Filter{Kind: FilterTerm, Field: field, Value: value} }

// TermInSet builds a TermInSet filter.
func TermInSet(field string, values []string) Filter {
	return Filter{Kind: FilterTermInSet, Field: field, Values: values}
}

// Boolean builds a Boolean filter.
func Boolean(minShouldMatch int, clauses ...BooleanClause) Filter {
	return Filter{Kind: FilterBoolean, Clauses: clauses, MinShouldMatch: minShouldMatch}
}

// GroupBySpec groups results by a field's value, kept minimal: the
// executable core exposes the grouping key, aggregation is left to the
// caller.
type GroupBySpec struct {
	Field string
}

// FacetKind discriminates a facet accumulator.
type FacetKind int

const (
	FacetTermCount FacetKind = iota
	FacetHistogram
)

// FacetSpec configures one facet accumulator.
type FacetSpec struct {
	Field   string
	Kind    FacetKind
	Buckets []float64 // histogram bucket boundaries, half-open
}

// DedupPolicy controls broker-side conflict resolution.
type DedupPolicy int

const (
	DedupMaxScore DedupPolicy = iota
	DedupFirstSeen
	DedupNone
)

// Dedup configures result de-duplication.
type Dedup struct {
	Policy DedupPolicy
}

// Reordering is one pure post-merge rescoring rule, compiled
// separately by the broker's reorder pipeline.
type Reordering struct {
	Name       string
	Expression string
}

// Join nests inner search queries, one per child namespace.
type Join struct {
	InnerSearchQueries []*SearchQuery
}

// SearchQuery is the root of the AST.
type SearchQuery struct {
	Namespace       string
	Keywords        Keywords
	Filter          *Filter
	Join            *Join
	GroupBy         *GroupBySpec
	Facet           []FacetSpec
	ReturnFields    []string
	ContextFeatures map[string]float64
	PhasedSortBy    []PhasedSortKey
	Dedup           Dedup
	Reorderings     []Reordering
	Limit           int
	Offset          int

	// ScoringRequired is set false by the planner when the query is a
	// pure-filter plan, letting the collector skip scoring entirely.
	ScoringRequired bool
}
