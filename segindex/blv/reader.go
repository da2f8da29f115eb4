package blv

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/dzlab/searchcore/segindex"
)

// Reader is a segindex.IndexReader backed by a single bleve.Index, the
// whole index presented as one logical segment at leafOrd 0.
type Reader struct {
	index   bleve.Index
	segment *Segment
}

// Open opens the committed bleve index rooted at path.
func Open(path string) (segindex.IndexReader, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blv: open %s: %w", path, err)
	}
	return &Reader{index: idx, segment: newSegment(idx)}, nil
}

func (r *Reader) Leaves() []segindex.SegmentReader { return []segindex.SegmentReader{r.segment} }
func (r *Reader) BaseOf(leafOrd int) int            { return 0 }
func (r *Reader) Close() error                       { return r.index.Close() }

// OpenSnapshot satisfies segindex.OpenSnapshotFunc.
var OpenSnapshot segindex.OpenSnapshotFunc = Open
