package collect

import (
	"strconv"

	roaring "github.com/RoaringBitmap/roaring/v2"

	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/segindex"
)

// FacetResult accumulates counts for one facet spec across every
// filter-matching document, not just the top-K.
type FacetResult struct {
	Spec   query.FacetSpec
	Counts map[string]int64
}

// facetAccumulator builds FacetResults incrementally as matching
// documents stream past, enforcing the soft totalHitsThreshold.
type facetAccumulator struct {
	specs     []query.FacetSpec
	results   []*FacetResult
	threshold int
	seen      int
	approx    bool
}

func newFacetAccumulator(specs []query.FacetSpec, threshold int) *facetAccumulator {
	a := &facetAccumulator{specs: specs, threshold: threshold}
	for _, s := range specs {
		a.results = append(a.results, &FacetResult{Spec: s, Counts: make(map[string]int64)})
	}
	return a
}

// Add folds one matching document (leafDocID within seg) into every
// facet accumulator. Once the soft threshold is reached, further calls
// are skipped and Results reports the counts as approximate.
func (a *facetAccumulator) Add(seg segindex.SegmentReader, leafDocID int) {
	if a.threshold > 0 && a.seen >= a.threshold {
		a.approx = true
		return
	}
	a.seen++
	for i, spec := range a.specs {
		switch spec.Kind {
		case query.FacetTermCount:
			if ssdv, err := seg.SortedSetDocValues(spec.Field); err == nil {
				for _, ord := range ssdv.Ordinals(leafDocID) {
					a.results[i].Counts[ssdv.LookupOrdinal(ord)]++
				}
				continue
			}
			if bdv, err := seg.BinaryDocValues(spec.Field); err == nil {
				if v, ok := bdv.Get(leafDocID); ok {
					a.results[i].Counts[string(v)]++
				}
			}
		case query.FacetHistogram:
			ndv, err := seg.NumericDocValues(spec.Field)
			if err != nil {
				continue
			}
			v, ok := ndv.Get(leafDocID)
			if !ok {
				continue
			}
			bucket := histogramBucket(spec.Buckets, v)
			a.results[i].Counts[bucket]++
		}
	}
}

func histogramBucket(boundaries []float64, v float64) string {
	for i, b := range boundaries {
		if v < b {
			if i == 0 {
				return "<" + formatFloat(b)
			}
			return "[" + formatFloat(boundaries[i-1]) + "," + formatFloat(b) + ")"
		}
	}
	if len(boundaries) == 0 {
		return "all"
	}
	return ">=" + formatFloat(boundaries[len(boundaries)-1])
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (a *facetAccumulator) Results() (map[string]*FacetResult, bool) {
	out := make(map[string]*FacetResult, len(a.results))
	for _, r := range a.results {
		out[r.Spec.Field] = r
	}
	return out, a.approx
}

// bitmapDocs returns the local doc ids in b in ascending order.
func bitmapDocs(b *roaring.Bitmap) []int {
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
