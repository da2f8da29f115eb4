package collect

import (
	"context"

	roaring "github.com/RoaringBitmap/roaring/v2"

	"github.com/dzlab/searchcore/compile"
	"github.com/dzlab/searchcore/query"
	"github.com/dzlab/searchcore/segindex"
)

// nodeResult is the matching doc-id set for a compiled node within one
// segment, plus the per-document score contribution of that node alone.
// Range and geo nodes carry a nil scores map: they never contribute to
// score.
type nodeResult struct {
	docs   *roaring.Bitmap
	scores map[uint32]float64
}

func allDocs(seg segindex.SegmentReader) *roaring.Bitmap {
	b := roaring.New()
	n := uint32(seg.NumDocs())
	for i := uint32(0); i < n; i++ {
		b.Add(i)
	}
	return b
}

func streamToBitmap(s segindex.DocIdStream) *roaring.Bitmap {
	b := roaring.New()
	for {
		id, ok := s.Next()
		if !ok {
			break
		}
		b.Add(uint32(id))
	}
	return b
}

// evalNode evaluates a compiled plan node against one segment, returning
// every matching local doc id and this node's own score contribution
// per doc (before occur weighting is applied by the caller).
func evalNode(ctx context.Context, seg segindex.SegmentReader, n *compile.Node) (nodeResult, error) {
	switch n.Kind {
	case compile.NodeMatchAll:
		return nodeResult{docs: allDocs(seg)}, nil

	case compile.NodeTerm:
		stream, err := seg.Postings(n.Field, n.Value)
		if err != nil {
			return nodeResult{}, err
		}
		b := streamToBitmap(stream)
		return nodeResult{docs: b, scores: uniformScore(b, 1.0)}, nil

	case compile.NodeTermInSet:
		b := roaring.New()
		for _, v := range n.Values {
			stream, err := seg.Postings(n.Field, v)
			if err != nil {
				return nodeResult{}, err
			}
			b.Or(streamToBitmap(stream))
		}
		return nodeResult{docs: b, scores: uniformScore(b, 1.0)}, nil

	case compile.NodeRange:
		stream, err := seg.RangeStream(n.Field, n.Lo, n.Hi)
		if err != nil {
			return nodeResult{}, err
		}
		return nodeResult{docs: streamToBitmap(stream)}, nil

	case compile.NodeGeo:
		stream, err := seg.GeoStream(n.Field, n.Lat, n.Lon, n.Meters)
		if err != nil {
			return nodeResult{}, err
		}
		return nodeResult{docs: streamToBitmap(stream)}, nil

	case compile.NodeVector:
		var prefilter segindex.DocIdStream
		if n.VectorFilter != nil {
			sub, err := evalNode(ctx, seg, n.VectorFilter)
			if err != nil {
				return nodeResult{}, err
			}
			prefilter = bitmapStream(sub.docs)
		}
		scored, err := seg.VectorTopK(ctx, n.Field, n.VectorTarget, n.VectorK, prefilter)
		if err != nil {
			return nodeResult{}, err
		}
		b := roaring.New()
		scores := make(map[uint32]float64, len(scored))
		for _, sd := range scored {
			b.Add(uint32(sd.DocID))
			scores[uint32(sd.DocID)] = sd.Score
		}
		return nodeResult{docs: b, scores: scores}, nil

	case compile.NodeBoolean:
		return evalBoolean(ctx, seg, n)

	default:
		return nodeResult{docs: roaring.New()}, nil
	}
}

func uniformScore(b *roaring.Bitmap, weight float64) map[uint32]float64 {
	scores := make(map[uint32]float64, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		scores[it.Next()] = weight
	}
	return scores
}

type bitmapDocStream struct {
	it roaring.IntPeekable
}

func (s *bitmapDocStream) Next() (int, bool) {
	if !s.it.HasNext() {
		return -1, false
	}
	return int(s.it.Next()), true
}

func bitmapStream(b *roaring.Bitmap) segindex.DocIdStream {
	return &bitmapDocStream{it: b.Iterator()}
}

func evalBoolean(ctx context.Context, seg segindex.SegmentReader, n *compile.Node) (nodeResult, error) {
	var mustBitmap *roaring.Bitmap
	mustNot := roaring.New()
	scores := make(map[uint32]float64)

	type shouldClause struct {
		docs   *roaring.Bitmap
		scores map[uint32]float64
	}
	var shoulds []shouldClause

	hasMustOrFilter := false
	for _, c := range n.Clauses {
		res, err := evalNode(ctx, seg, c.Node)
		if err != nil {
			return nodeResult{}, err
		}
		switch c.Occur {
		case query.MUST, query.FILTERocc:
			hasMustOrFilter = true
			if mustBitmap == nil {
				mustBitmap = res.docs
			} else {
				mustBitmap.And(res.docs)
			}
			if c.Occur == query.MUST {
				addScores(scores, res.scores)
			}
		case query.MUSTNOT:
			mustNot.Or(res.docs)
		case query.SHOULD:
			shoulds = append(shoulds, shouldClause{docs: res.docs, scores: res.scores})
		}
	}

	var result *roaring.Bitmap
	if hasMustOrFilter {
		result = mustBitmap.Clone()
	} else {
		result = allDocs(seg)
	}

	minShouldMatch := n.MinShouldMatch
	if minShouldMatch == 0 && !hasMustOrFilter && len(shoulds) > 0 {
		// With no MUST/FILTER clause, at least one SHOULD must match —
		// otherwise a pure-SHOULD node (e.g. a keyword group) would match
		// every document in the segment.
		minShouldMatch = 1
	}

	if minShouldMatch > 0 {
		counts := make(map[uint32]int)
		for _, sc := range shoulds {
			it := sc.docs.Iterator()
			for it.HasNext() {
				counts[it.Next()]++
			}
		}
		keep := roaring.New()
		it := result.Iterator()
		for it.HasNext() {
			id := it.Next()
			if counts[id] >= minShouldMatch {
				keep.Add(id)
			}
		}
		result = keep
	}

	result.AndNot(mustNot)

	for _, sc := range shoulds {
		it := result.Iterator()
		for it.HasNext() {
			id := it.Next()
			if v, ok := sc.scores[id]; ok {
				scores[id] += v
			}
		}
	}

	// trim scores to the final result set only.
	final := make(map[uint32]float64, result.GetCardinality())
	it := result.Iterator()
	for it.HasNext() {
		id := it.Next()
		final[id] = scores[id]
	}

	return nodeResult{docs: result, scores: final}, nil
}

func addScores(dst, src map[uint32]float64) {
	for k, v := range src {
		dst[k] += v
	}
}
