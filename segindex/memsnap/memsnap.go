// Package memsnap is a small in-memory implementation of the segindex
// port, used only by the test suites of collect/hydrate/join/searcher so
// they can exercise real query-engine code without a live Bleve index.
package memsnap

import (
	"context"
	"math"
	"sort"

	"github.com/dzlab/searchcore/segindex"
)

// Doc is a single in-memory document. Field values are stored both as
// "postings" (string -> doc ids, built from string/list-of-string
// fields) and as raw doc-values (for range/sort/child-binding access).
type Doc struct {
	LocalID int
	Fields  map[string]any
}

// Segment is an in-memory segindex.SegmentReader.
type Segment struct {
	docs     []Doc
	postings map[string]map[string][]int // field -> term -> sorted doc ids
}

// NewSegment builds a Segment from docs, indexing every string and
// []string field value as a posting list.
func NewSegment(docs []Doc) *Segment {
	s := &Segment{docs: docs, postings: make(map[string]map[string][]int)}
	for _, d := range docs {
		for field, v := range d.Fields {
			for _, term := range stringTerms(v) {
				byTerm, ok := s.postings[field]
				if !ok {
					byTerm = make(map[string][]int)
					s.postings[field] = byTerm
				}
				byTerm[term] = append(byTerm[term], d.LocalID)
			}
		}
	}
	for _, byTerm := range s.postings {
		for term := range byTerm {
			sort.Ints(byTerm[term])
		}
	}
	return s
}

func stringTerms(v any) []string {
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []string:
		return vv
	default:
		return nil
	}
}

type sliceStream struct {
	ids []int
	pos int
}

func (s *sliceStream) Next() (int, bool) {
	if s.pos >= len(s.ids) {
		return -1, false
	}
	v := s.ids[s.pos]
	s.pos++
	return v, true
}

func newStream(ids []int) segindex.DocIdStream { return &sliceStream{ids: ids} }

func (s *Segment) Postings(field, term string) (segindex.DocIdStream, error) {
	byTerm, ok := s.postings[field]
	if !ok {
		return newStream(nil), nil
	}
	return newStream(byTerm[term]), nil
}

type termsEnum struct {
	terms []string
	pos   int
}

func (t *termsEnum) Next() (string, bool) {
	if t.pos >= len(t.terms) {
		return "", false
	}
	v := t.terms[t.pos]
	t.pos++
	return v, true
}

func (s *Segment) TermsEnum(field string) (segindex.TermsEnum, error) {
	byTerm := s.postings[field]
	terms := make([]string, 0, len(byTerm))
	for t := range byTerm {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return &termsEnum{terms: terms}, nil
}

func (s *Segment) RangeStream(field string, lo, hi float64) (segindex.DocIdStream, error) {
	var ids []int
	for _, d := range s.docs {
		f, ok := numericOf(d.Fields[field])
		if !ok {
			continue
		}
		if f >= lo && f <= hi {
			ids = append(ids, d.LocalID)
		}
	}
	sort.Ints(ids)
	return newStream(ids), nil
}

func numericOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// GeoPoint is the in-memory representation of a geo_point field value.
type GeoPoint struct{ Lat, Lon float64 }

func (s *Segment) GeoStream(field string, lat, lon, radiusMeters float64) (segindex.DocIdStream, error) {
	var ids []int
	for _, d := range s.docs {
		gp, ok := d.Fields[field].(GeoPoint)
		if !ok {
			continue
		}
		if haversineMeters(lat, lon, gp.Lat, gp.Lon) <= radiusMeters {
			ids = append(ids, d.LocalID)
		}
	}
	sort.Ints(ids)
	return newStream(ids), nil
}

const earthRadiusMeters = 6371000.0

func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func (s *Segment) VectorTopK(ctx context.Context, field string, target []float32, k int, prefilter segindex.DocIdStream) ([]segindex.ScoredDoc, error) {
	allowed := map[int]struct{}{}
	hasFilter := prefilter != nil
	if hasFilter {
		for {
			id, ok := prefilter.Next()
			if !ok {
				break
			}
			allowed[id] = struct{}{}
		}
	}
	var scored []segindex.ScoredDoc
	for _, d := range s.docs {
		if hasFilter {
			if _, ok := allowed[d.LocalID]; !ok {
				continue
			}
		}
		vec, ok := d.Fields[field].([]float32)
		if !ok {
			continue
		}
		scored = append(scored, segindex.ScoredDoc{DocID: d.LocalID, Score: dotProduct(target, vec)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func dotProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

type sortedSetDV struct {
	byDoc map[int][]string
	ords  []string
	index map[string]int
}

func (d *sortedSetDV) Ordinals(leafDocID int) []int {
	vals := d.byDoc[leafDocID]
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		out = append(out, d.index[v])
	}
	return out
}

func (d *sortedSetDV) LookupOrdinal(ord int) string {
	if ord < 0 || ord >= len(d.ords) {
		return ""
	}
	return d.ords[ord]
}

func (s *Segment) SortedSetDocValues(field string) (segindex.SortedSetDocValues, error) {
	byDoc := make(map[int][]string)
	seen := map[string]struct{}{}
	var ords []string
	for _, d := range s.docs {
		terms := stringTerms(d.Fields[field])
		if len(terms) == 0 {
			continue
		}
		byDoc[d.LocalID] = terms
		for _, t := range terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				ords = append(ords, t)
			}
		}
	}
	sort.Strings(ords)
	index := make(map[string]int, len(ords))
	for i, t := range ords {
		index[t] = i
	}
	return &sortedSetDV{byDoc: byDoc, ords: ords, index: index}, nil
}

type numericDV struct{ byDoc map[int]float64 }

func (n *numericDV) Get(leafDocID int) (float64, bool) {
	v, ok := n.byDoc[leafDocID]
	return v, ok
}

func (s *Segment) NumericDocValues(field string) (segindex.NumericDocValues, error) {
	byDoc := make(map[int]float64)
	for _, d := range s.docs {
		if f, ok := numericOf(d.Fields[field]); ok {
			byDoc[d.LocalID] = f
		}
	}
	return &numericDV{byDoc: byDoc}, nil
}

type binaryDV struct{ byDoc map[int][]byte }

func (b *binaryDV) Get(leafDocID int) ([]byte, bool) {
	v, ok := b.byDoc[leafDocID]
	return v, ok
}

func (s *Segment) BinaryDocValues(field string) (segindex.BinaryDocValues, error) {
	byDoc := make(map[int][]byte)
	for _, d := range s.docs {
		if str, ok := d.Fields[field].(string); ok {
			byDoc[d.LocalID] = []byte(str)
		}
	}
	return &binaryDV{byDoc: byDoc}, nil
}

type storedFields struct{ docs map[int]map[string]any }

func (sf *storedFields) Document(leafDocID int, fields map[string]struct{}) (map[string]any, error) {
	src, ok := sf.docs[leafDocID]
	if !ok {
		return nil, nil
	}
	out := make(map[string]any, len(fields))
	for f := range fields {
		if v, ok := src[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

func (s *Segment) StoredFields() segindex.StoredFields {
	docs := make(map[int]map[string]any, len(s.docs))
	for _, d := range s.docs {
		docs[d.LocalID] = d.Fields
	}
	return &storedFields{docs: docs}
}

func (s *Segment) NumDocs() int { return len(s.docs) }

// Reader is an in-memory segindex.IndexReader over a fixed set of
// segments.
type Reader struct {
	segments []segindex.SegmentReader
	bases    []int
}

// NewReader builds a Reader from segments, computing global doc id bases
// from each segment's NumDocs in order.
func NewReader(segments ...*Segment) *Reader {
	r := &Reader{}
	base := 0
	for _, s := range segments {
		r.segments = append(r.segments, s)
		r.bases = append(r.bases, base)
		base += s.NumDocs()
	}
	return r
}

func (r *Reader) Leaves() []segindex.SegmentReader { return r.segments }
func (r *Reader) BaseOf(leafOrd int) int           { return r.bases[leafOrd] }
func (r *Reader) Close() error                     { return nil }
