package searcher

import (
	"fmt"
	"sync"

	"github.com/dzlab/searchcore/segindex"
)

// SnapshotSource resolves each namespace's configured snapshot path to a
// segindex.IndexReader, opening it lazily on first use and reusing it for
// every subsequent query.
type SnapshotSource struct {
	Open  segindex.OpenSnapshotFunc
	Paths map[string]string

	mu      sync.Mutex
	readers map[string]segindex.IndexReader
}

// Segments implements join.SegmentSource.
func (s *SnapshotSource) Segments(namespace string) ([]segindex.SegmentReader, func(int) int, error) {
	reader, err := s.reader(namespace)
	if err != nil {
		return nil, nil, err
	}
	return reader.Leaves(), reader.BaseOf, nil
}

func (s *SnapshotSource) reader(namespace string) (segindex.IndexReader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reader, ok := s.readers[namespace]; ok {
		return reader, nil
	}

	path, ok := s.Paths[namespace]
	if !ok {
		return nil, fmt.Errorf("searcher: no snapshot path configured for namespace %q", namespace)
	}
	reader, err := s.Open(path)
	if err != nil {
		return nil, fmt.Errorf("searcher: open snapshot for namespace %q: %w", namespace, err)
	}
	if s.readers == nil {
		s.readers = make(map[string]segindex.IndexReader)
	}
	s.readers[namespace] = reader
	return reader, nil
}

// Close releases every opened snapshot reader.
func (s *SnapshotSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for namespace, reader := range s.readers {
		if err := reader.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("searcher: close snapshot for namespace %q: %w", namespace, err)
		}
	}
	s.readers = nil
	return firstErr
}
