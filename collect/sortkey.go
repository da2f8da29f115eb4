package collect

import (
	"math"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/segindex"
)

// SortKeyKind discriminates a single component of a phased sort tuple.
type SortKeyKind int

const (
	SortKeyMissing SortKeyKind = iota
	SortKeyNumber
	SortKeyString
)

// SortKeyValue is one resolved component of a Document's phased sort
// tuple. Null/missing values sort last regardless of direction.
type SortKeyValue struct {
	Kind      SortKeyKind
	Num       float64
	Str       string
	Direction query.Direction
}

// orderedBits maps a float64 to a uint64 whose natural ordering matches
// IEEE-754 total ordering (NaNs last).
func orderedBits(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

// less reports whether a ranks strictly before b for a single sort
// component, respecting direction and missing-last semantics.
func (a SortKeyValue) less(b SortKeyValue) (lt bool, eq bool) {
	if a.Kind == SortKeyMissing && b.Kind == SortKeyMissing {
		return false, true
	}
	if a.Kind == SortKeyMissing {
		return false, false // missing always sorts last: a is not < b
	}
	if b.Kind == SortKeyMissing {
		return true, false // b missing: a < b
	}
	if a.Kind == SortKeyNumber {
		ab, bb := orderedBits(a.Num), orderedBits(b.Num)
		if ab == bb {
			return false, true
		}
		if a.Direction == query.Desc {
			return ab > bb, false
		}
		return ab < bb, false
	}
	// string comparison
	if a.Str == b.Str {
		return false, true
	}
	if a.Direction == query.Desc {
		return a.Str > b.Str, false
	}
	return a.Str < b.Str, false
}

// CompareSortKeys implements the lexicographic phased-sort comparison:
// the first component that differs decides the order. Returns true if
// x ranks strictly before y.
func CompareSortKeys(x, y []SortKeyValue) bool {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		lt, eq := x[i].less(y[i])
		if !eq {
			return lt
		}
	}
	return false
}

// BuildSortKey resolves a phased sort spec into concrete SortKeyValues
// for one matching document, reading score, docid, context features, or
// a doc-value-backed field as required.
func BuildSortKey(spec []query.PhasedSortKey, score float64, globalDocID int, leafDocID int, seg segindex.SegmentReader, contextFeatures map[string]float64) []SortKeyValue {
	out := make([]SortKeyValue, len(spec))
	for i, s := range spec {
		switch s.Kind {
		case query.SortByScore:
			out[i] = SortKeyValue{Kind: SortKeyNumber, Num: score, Direction: s.Direction}
		case query.SortByDocID:
			out[i] = SortKeyValue{Kind: SortKeyNumber, Num: float64(globalDocID), Direction: s.Direction}
		case query.SortByContextFeature:
			if v, ok := contextFeatures[s.Field]; ok {
				out[i] = SortKeyValue{Kind: SortKeyNumber, Num: v, Direction: s.Direction}
			} else {
				out[i] = SortKeyValue{Kind: SortKeyMissing, Direction: s.Direction}
			}
		case query.SortByField:
			out[i] = resolveFieldSortKey(s, leafDocID, seg)
		}
	}
	return out
}

func resolveFieldSortKey(s query.PhasedSortKey, leafDocID int, seg segindex.SegmentReader) SortKeyValue {
	if ndv, err := seg.NumericDocValues(s.Field); err == nil {
		if v, ok := ndv.Get(leafDocID); ok {
			return SortKeyValue{Kind: SortKeyNumber, Num: v, Direction: s.Direction}
		}
	}
	if bdv, err := seg.BinaryDocValues(s.Field); err == nil {
		if v, ok := bdv.Get(leafDocID); ok {
			return SortKeyValue{Kind: SortKeyString, Str: string(v), Direction: s.Direction}
		}
	}
	return SortKeyValue{Kind: SortKeyMissing, Direction: s.Direction}
}
