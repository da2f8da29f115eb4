// Package collect implements the match+rank collector: per-segment
// scoring, phased-sort top-K maintenance, child binding via doc-value
// lookups, and facet accumulation.
package collect

// Document is a shallow in-flight search hit. It is constructed on a
// match, mutated during hydration and child binding, emitted into the
// response, and discarded thereafter.
type Document struct {
	LeafOrd     int
	LeafDocID   int
	GlobalDocID int

	PrimaryKey string
	Score      float64
	SortKey    []SortKeyValue

	// ReturnFields is populated by the hydrator (package hydrate).
	ReturnFields map[string]any

	// Children holds attached child documents keyed by the foreign-key
	// field that produced the attachment. It is a per-request
	// projection, never a back-pointer.
	Children map[string][]*Document
}
