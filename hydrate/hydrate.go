// Package hydrate materializes returnFields for collected documents by
// reading stored fields and doc-value columns in segment/leafDocId
// order.
package hydrate

import (
	"context"
	"log/slog"
	"sort"

	"github.com/dzlab/searchcore/collect"
	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/segindex"
)

// Hydrator fetches returnFields for collected documents.
type Hydrator struct {
	Namespace schema.Namespace
	Logger    *slog.Logger
}

// Stats reports how many documents were dropped for I/O failure during
// hydration.
type Stats struct {
	IOFailures int
}

func (h *Hydrator) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Hydrate fetches returnFields for every candidate, mutating each
// Document in place and returning the survivors (documents dropped for
// IOFailure are removed from the slice, not just left empty).
func (h *Hydrator) Hydrate(ctx context.Context, candidates []*collect.Document, returnFields []string, segs []segindex.SegmentReader) ([]*collect.Document, Stats, error) {
	var stats Stats
	if len(candidates) == 0 || len(returnFields) == 0 {
		return candidates, stats, nil
	}

	storedFieldNames, docValueFieldNames := h.classifyFields(returnFields)

	byLeaf := make(map[int][]*collect.Document)
	for _, d := range candidates {
		byLeaf[d.LeafOrd] = append(byLeaf[d.LeafOrd], d)
	}

	survivors := make([]*collect.Document, 0, len(candidates))
	for leafOrd, docs := range byLeaf {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if leafOrd < 0 || leafOrd >= len(segs) {
			continue
		}
		seg := segs[leafOrd]

		sort.Slice(docs, func(i, j int) bool { return docs[i].LeafDocID < docs[j].LeafDocID })

		fieldSet := make(map[string]struct{}, len(storedFieldNames))
		for _, f := range storedFieldNames {
			fieldSet[f] = struct{}{}
		}
		sf := seg.StoredFields()

		for _, d := range docs {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}

			d.ReturnFields = make(map[string]any, len(returnFields))

			if len(storedFieldNames) > 0 {
				stored, err := sf.Document(d.LeafDocID, fieldSet)
				if err != nil {
					stats.IOFailures++
					h.logger().Warn("hydrate: stored field read failed, dropping document",
						"namespace", h.Namespace.Name, "leaf_ord", leafOrd, "leaf_doc_id", d.LeafDocID, "err", err)
					continue
				}
				for k, v := range stored {
					d.ReturnFields[k] = v
				}
			}

			for _, f := range docValueFieldNames {
				h.hydrateDocValue(seg, f, d)
			}

			survivors = append(survivors, d)
		}
	}

	// restore caller-visible ordering: hydration processed documents
	// grouped by segment for sequential access, but callers expect the
	// original rank order back.
	rank := make(map[*collect.Document]int, len(candidates))
	for i, d := range candidates {
		rank[d] = i
	}
	sort.Slice(survivors, func(i, j int) bool { return rank[survivors[i]] < rank[survivors[j]] })

	return survivors, stats, nil
}

// classifyFields splits returnFields into stored-field names and
// doc-value-backed field names per schema.Field.DocValues.
func (h *Hydrator) classifyFields(returnFields []string) (stored, docValues []string) {
	for _, name := range returnFields {
		f, ok := h.Namespace.Field(name)
		if ok && f.DocValues {
			docValues = append(docValues, name)
			continue
		}
		stored = append(stored, name)
	}
	return stored, docValues
}

func (h *Hydrator) hydrateDocValue(seg segindex.SegmentReader, field string, d *collect.Document) {
	if ndv, err := seg.NumericDocValues(field); err == nil {
		if v, ok := ndv.Get(d.LeafDocID); ok {
			d.ReturnFields[field] = v
			return
		}
	}
	if ssdv, err := seg.SortedSetDocValues(field); err == nil {
		ords := ssdv.Ordinals(d.LeafDocID)
		if len(ords) > 0 {
			if f, ok := h.Namespace.Field(field); ok && f.Type == schema.String {
				d.ReturnFields[field] = ssdv.LookupOrdinal(ords[0])
				return
			}
			values := make([]string, len(ords))
			for i, ord := range ords {
				values[i] = ssdv.LookupOrdinal(ord)
			}
			d.ReturnFields[field] = values
			return
		}
	}
	if bdv, err := seg.BinaryDocValues(field); err == nil {
		if v, ok := bdv.Get(d.LeafDocID); ok {
			d.ReturnFields[field] = string(v)
		}
	}
	// absent: leave unset. Missing fields are represented as absent
	// values, not errors.
}
