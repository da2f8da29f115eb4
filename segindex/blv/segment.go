// Package blv adapts a bleve.Index to the segindex port. Bleve's public
// API does not expose per-segment internals (postings lists, doc-value
// columns), so the whole index is presented to the query core as a
// single logical segment, and every read is implemented on top of
// bleve's Search API rather than a raw segment format.
package blv

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/dzlab/searchcore/segindex"
)

// Segment is a segindex.SegmentReader backed by a bleve.Index.
type Segment struct {
	index bleve.Index

	mu    sync.Mutex
	byID  map[string]int
	byOrd []string

	dvMu        sync.Mutex
	numericDV   map[string]segindex.NumericDocValues
	binaryDV    map[string]segindex.BinaryDocValues
	sortedSetDV map[string]segindex.SortedSetDocValues
}

func newSegment(index bleve.Index) *Segment {
	return &Segment{index: index, byID: make(map[string]int)}
}

// ordinal assigns a stable local doc id to a bleve external document
// id, minting the next free ordinal the first time id is seen.
func (s *Segment) ordinal(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ord, ok := s.byID[id]; ok {
		return ord
	}
	ord := len(s.byOrd)
	s.byID[id] = ord
	s.byOrd = append(s.byOrd, id)
	return ord
}

func (s *Segment) externalID(ord int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ord < 0 || ord >= len(s.byOrd) {
		return "", false
	}
	return s.byOrd[ord], true
}

func (s *Segment) NumDocs() int {
	n, err := s.index.DocCount()
	if err != nil {
		return 0
	}
	return int(n)
}

func (s *Segment) search(q query.Query, fields []string) (*bleve.SearchResult, error) {
	req := bleve.NewSearchRequestOptions(q, s.NumDocs(), 0, false)
	req.Fields = fields
	return s.index.Search(req)
}

func (s *Segment) hitsToStream(result *bleve.SearchResult) segindex.DocIdStream {
	ids := make([]int, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, s.ordinal(hit.ID))
	}
	sort.Ints(ids)
	return &idStream{ids: ids}
}

func (s *Segment) Postings(field, term string) (segindex.DocIdStream, error) {
	q := bleve.NewTermQuery(term)
	q.SetField(field)
	result, err := s.search(q, nil)
	if err != nil {
		return nil, fmt.Errorf("blv: postings %s=%s: %w", field, term, err)
	}
	return s.hitsToStream(result), nil
}

func (s *Segment) RangeStream(field string, lo, hi float64) (segindex.DocIdStream, error) {
	q := bleve.NewNumericRangeQuery(&lo, &hi)
	q.SetField(field)
	result, err := s.search(q, nil)
	if err != nil {
		return nil, fmt.Errorf("blv: range %s: %w", field, err)
	}
	return s.hitsToStream(result), nil
}

func (s *Segment) GeoStream(field string, lat, lon, radiusMeters float64) (segindex.DocIdStream, error) {
	q := bleve.NewGeoDistanceQuery(lon, lat, fmt.Sprintf("%fm", radiusMeters))
	q.SetField(field)
	result, err := s.search(q, nil)
	if err != nil {
		return nil, fmt.Errorf("blv: geo %s: %w", field, err)
	}
	return s.hitsToStream(result), nil
}

// VectorTopK scores every candidate (restricted to prefilter, if given)
// by dot product against target and returns the k best. Bleve's public
// query layer doesn't expose ANN search uniformly across backends, so
// this scans the vector field's stored values rather than using an
// index-native kNN search.
func (s *Segment) VectorTopK(ctx context.Context, field string, target []float32, k int, prefilter segindex.DocIdStream) ([]segindex.ScoredDoc, error) {
	var allowed map[int]bool
	if prefilter != nil {
		allowed = make(map[int]bool)
		for {
			id, ok := prefilter.Next()
			if !ok {
				break
			}
			allowed[id] = true
		}
	}

	result, err := s.search(bleve.NewMatchAllQuery(), []string{field})
	if err != nil {
		return nil, fmt.Errorf("blv: vectorTopK %s: %w", field, err)
	}

	var scored []segindex.ScoredDoc
	for _, hit := range result.Hits {
		ord := s.ordinal(hit.ID)
		if allowed != nil && !allowed[ord] {
			continue
		}
		vec, ok := asFloat32Vector(hit.Fields[field])
		if !ok {
			continue
		}
		scored = append(scored, segindex.ScoredDoc{DocID: ord, Score: dotProduct(target, vec)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func asFloat32Vector(v any) ([]float32, bool) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]float32, len(list))
	for i, x := range list {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out[i] = float32(f)
	}
	return out, true
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

// TermsEnum scans the field's values across every document (bleve
// exposes no direct public term dictionary iterator) and returns the
// distinct terms in sorted order.
func (s *Segment) TermsEnum(field string) (segindex.TermsEnum, error) {
	result, err := s.search(bleve.NewMatchAllQuery(), []string{field})
	if err != nil {
		return nil, fmt.Errorf("blv: termsEnum %s: %w", field, err)
	}
	seen := make(map[string]struct{})
	var terms []string
	for _, hit := range result.Hits {
		for _, v := range stringValues(hit.Fields[field]) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			terms = append(terms, v)
		}
	}
	sort.Strings(terms)
	return &termsEnum{terms: terms}, nil
}

func stringValues(v any) []string {
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if str, ok := x.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// SortedSetDocValues scans the field once per segment and caches the
// result: collect.go and hydrate.go call this once per candidate
// document, and re-running a full-index Search per call would turn a
// single request into one full scan per result.
func (s *Segment) SortedSetDocValues(field string) (segindex.SortedSetDocValues, error) {
	s.dvMu.Lock()
	defer s.dvMu.Unlock()
	if dv, ok := s.sortedSetDV[field]; ok {
		return dv, nil
	}

	result, err := s.search(bleve.NewMatchAllQuery(), []string{field})
	if err != nil {
		return nil, fmt.Errorf("blv: sortedSetDocValues %s: %w", field, err)
	}
	var terms []string
	termOrd := make(map[string]int)
	ordsByDoc := make(map[int][]int)
	for _, hit := range result.Hits {
		ord := s.ordinal(hit.ID)
		for _, v := range stringValues(hit.Fields[field]) {
			to, ok := termOrd[v]
			if !ok {
				to = len(terms)
				terms = append(terms, v)
				termOrd[v] = to
			}
			ordsByDoc[ord] = append(ordsByDoc[ord], to)
		}
	}
	dv := &sortedSetDocValues{terms: terms, ordsByDoc: ordsByDoc}
	if s.sortedSetDV == nil {
		s.sortedSetDV = make(map[string]segindex.SortedSetDocValues)
	}
	s.sortedSetDV[field] = dv
	return dv, nil
}

// NumericDocValues scans the field once per segment and caches the
// result; see SortedSetDocValues for why this matters.
func (s *Segment) NumericDocValues(field string) (segindex.NumericDocValues, error) {
	s.dvMu.Lock()
	defer s.dvMu.Unlock()
	if dv, ok := s.numericDV[field]; ok {
		return dv, nil
	}

	result, err := s.search(bleve.NewMatchAllQuery(), []string{field})
	if err != nil {
		return nil, fmt.Errorf("blv: numericDocValues %s: %w", field, err)
	}
	values := make(map[int]float64)
	for _, hit := range result.Hits {
		if f, ok := hit.Fields[field].(float64); ok {
			values[s.ordinal(hit.ID)] = f
		}
	}
	dv := &numericDocValues{values: values}
	if s.numericDV == nil {
		s.numericDV = make(map[string]segindex.NumericDocValues)
	}
	s.numericDV[field] = dv
	return dv, nil
}

// BinaryDocValues scans the field once per segment and caches the
// result; see SortedSetDocValues for why this matters.
func (s *Segment) BinaryDocValues(field string) (segindex.BinaryDocValues, error) {
	s.dvMu.Lock()
	defer s.dvMu.Unlock()
	if dv, ok := s.binaryDV[field]; ok {
		return dv, nil
	}

	result, err := s.search(bleve.NewMatchAllQuery(), []string{field})
	if err != nil {
		return nil, fmt.Errorf("blv: binaryDocValues %s: %w", field, err)
	}
	values := make(map[int][]byte)
	for _, hit := range result.Hits {
		if str, ok := hit.Fields[field].(string); ok {
			values[s.ordinal(hit.ID)] = []byte(str)
		}
	}
	dv := &binaryDocValues{values: values}
	if s.binaryDV == nil {
		s.binaryDV = make(map[string]segindex.BinaryDocValues)
	}
	s.binaryDV[field] = dv
	return dv, nil
}

func (s *Segment) StoredFields() segindex.StoredFields { return &storedFields{seg: s} }

type idStream struct {
	ids []int
	pos int
}

func (s *idStream) Next() (int, bool) {
	if s.pos >= len(s.ids) {
		return -1, false
	}
	id := s.ids[s.pos]
	s.pos++
	return id, true
}

type termsEnum struct {
	terms []string
	pos   int
}

func (t *termsEnum) Next() (string, bool) {
	if t.pos >= len(t.terms) {
		return "", false
	}
	term := t.terms[t.pos]
	t.pos++
	return term, true
}

type sortedSetDocValues struct {
	terms     []string
	ordsByDoc map[int][]int
}

func (d *sortedSetDocValues) Ordinals(leafDocID int) []int { return d.ordsByDoc[leafDocID] }
func (d *sortedSetDocValues) LookupOrdinal(ord int) string {
	if ord < 0 || ord >= len(d.terms) {
		return ""
	}
	return d.terms[ord]
}

type numericDocValues struct{ values map[int]float64 }

func (d *numericDocValues) Get(leafDocID int) (float64, bool) {
	v, ok := d.values[leafDocID]
	return v, ok
}

type binaryDocValues struct{ values map[int][]byte }

func (d *binaryDocValues) Get(leafDocID int) ([]byte, bool) {
	v, ok := d.values[leafDocID]
	return v, ok
}

type storedFields struct{ seg *Segment }

func (f *storedFields) Document(leafDocID int, fields map[string]struct{}) (map[string]any, error) {
	id, ok := f.seg.externalID(leafDocID)
	if !ok {
		return nil, fmt.Errorf("blv: no document at ordinal %d", leafDocID)
	}
	fieldList := make([]string, 0, len(fields))
	for field := range fields {
		fieldList = append(fieldList, field)
	}
	result, err := f.seg.search(bleve.NewDocIDQuery([]string{id}), fieldList)
	if err != nil {
		return nil, fmt.Errorf("blv: document %s: %w", id, err)
	}
	if len(result.Hits) == 0 {
		return nil, fmt.Errorf("blv: document %s not found", id)
	}
	return result.Hits[0].Fields, nil
}
