package collect

import "container/heap"

// Better reports whether a should rank ahead of b: its phased sort key
// compares strictly before b's, or they tie and a's globalDocId is
// smaller, deterministic across runs.
func Better(a, b *Document) bool {
	if CompareSortKeys(a.SortKey, b.SortKey) {
		return true
	}
	if CompareSortKeys(b.SortKey, a.SortKey) {
		return false
	}
	return a.GlobalDocID < b.GlobalDocID
}

// topKHeap is a bounded min-heap over admitted documents: its root is
// always the *worst* currently-admitted document, so a full heap can be
// evicted in O(log n) when a better candidate arrives.
type topKHeap struct {
	docs []*Document
}

func (h *topKHeap) Len() int { return len(h.docs) }

// Less defines heap ordering by "worseness": docs[i] is worse than
// docs[j] when docs[j] would rank ahead of it.
func (h *topKHeap) Less(i, j int) bool { return Better(h.docs[j], h.docs[i]) }
func (h *topKHeap) Swap(i, j int)      { h.docs[i], h.docs[j] = h.docs[j], h.docs[i] }

func (h *topKHeap) Push(x any) { h.docs = append(h.docs, x.(*Document)) }
func (h *topKHeap) Pop() any {
	n := len(h.docs)
	d := h.docs[n-1]
	h.docs = h.docs[:n-1]
	return d
}

// BoundedTopK maintains up to capacity admitted documents, ordered by
// Better, evicting the current worst when a strictly better candidate
// arrives once full.
type BoundedTopK struct {
	capacity int
	h        *topKHeap
}

// NewBoundedTopK creates a collector bounded to capacity documents.
func NewBoundedTopK(capacity int) *BoundedTopK {
	return &BoundedTopK{capacity: capacity, h: &topKHeap{}}
}

// WouldAccept reports whether d would be admitted without mutating the
// heap, letting callers skip later scoring phases once the heap is full
// and d's known prefix is already strictly worse than the worst admitted.
func (b *BoundedTopK) WouldAccept(d *Document) bool {
	if b.capacity <= 0 {
		return false
	}
	if b.h.Len() < b.capacity {
		return true
	}
	return Better(d, b.h.docs[0])
}

// Offer inserts d if it is accepted, evicting the current worst document
// when the heap is already at capacity.
func (b *BoundedTopK) Offer(d *Document) {
	if b.capacity <= 0 {
		return
	}
	if b.h.Len() < b.capacity {
		heap.Push(b.h, d)
		return
	}
	if Better(d, b.h.docs[0]) {
		heap.Pop(b.h)
		heap.Push(b.h, d)
	}
}

// Drain returns the admitted documents ordered best-first and resets the
// heap to empty.
func (b *BoundedTopK) Drain() []*Document {
	out := make([]*Document, b.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(b.h).(*Document)
	}
	return out
}

// Len reports the number of documents currently admitted.
func (b *BoundedTopK) Len() int { return b.h.Len() }
