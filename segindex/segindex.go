// Package segindex defines the narrow read-only port the query core
// depends on for segmented-index primitives. Posting lists, doc-value
// columns and stored-field readers are assumed to exist; this package
// only describes the shape the rest of the core consumes.
package segindex

import "context"

// DocIdStream yields matching local doc ids within a single segment, in
// ascending order.
type DocIdStream interface {
	// Next returns the next doc id, or (-1, false) when exhausted.
	Next() (int, bool)
}

// TermsEnum iterates the distinct terms of a field.
type TermsEnum interface {
	Next() (term string, ok bool)
}

// ScoredDoc is a single ANN result: a local doc id and its similarity
// score.
type ScoredDoc struct {
	DocID int
	Score float64
}

// SortedSetDocValues provides ordinal iteration over a multi-valued
// field without loading stored fields.
type SortedSetDocValues interface {
	// Ordinals returns the sorted-set ordinals for leafDocID.
	Ordinals(leafDocID int) []int
	// LookupOrdinal resolves an ordinal back to its string value.
	LookupOrdinal(ord int) string
}

// NumericDocValues provides single-valued numeric doc-value access.
type NumericDocValues interface {
	Get(leafDocID int) (value float64, ok bool)
}

// BinaryDocValues provides single-valued opaque/string doc-value access.
type BinaryDocValues interface {
	Get(leafDocID int) (value []byte, ok bool)
}

// StoredFields reads stored field values for a document, restricted to
// the requested field set.
type StoredFields interface {
	Document(leafDocID int, fields map[string]struct{}) (map[string]any, error)
}

// SegmentReader is the per-segment read surface.
type SegmentReader interface {
	Postings(field, term string) (DocIdStream, error)
	TermsEnum(field string) (TermsEnum, error)
	RangeStream(field string, lo, hi float64) (DocIdStream, error)
	GeoStream(field string, lat, lon, radiusMeters float64) (DocIdStream, error)
	VectorTopK(ctx context.Context, field string, target []float32, k int, prefilter DocIdStream) ([]ScoredDoc, error)
	SortedSetDocValues(field string) (SortedSetDocValues, error)
	NumericDocValues(field string) (NumericDocValues, error)
	BinaryDocValues(field string) (BinaryDocValues, error)
	StoredFields() StoredFields
	// NumDocs reports the number of live documents in the segment.
	NumDocs() int
}

// IndexReader is an immutable, ordered view over a shard's segments.
type IndexReader interface {
	Leaves() []SegmentReader
	// BaseOf returns the global doc id base for the segment at leafOrd.
	BaseOf(leafOrd int) int
	Close() error
}

// OpenSnapshotFunc opens a committed index snapshot at path. The concrete
// implementation (e.g. segindex/blv) is provided by the artifact
// distribution layer's local copy of the latest generation; this
// function signature is the consumer side of that external contract.
type OpenSnapshotFunc func(path string) (IndexReader, error)
