// Package searcher implements the per-shard query engine service:
// decoding a wire-format request, running the compile -> join -> collect
// -> hydrate pipeline under a bounded concurrency semaphore and a
// deadline, and encoding the wire-format response.
package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dzlab/searchcore/internal/apierr"
	"github.com/dzlab/searchcore/internal/config"
	"github.com/dzlab/searchcore/join"
	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/wire"
)

// Service runs search requests against one shard's local index
// snapshot.
type Service struct {
	Schema          *schema.Schema
	Executor        *join.Executor
	DefaultDeadline time.Duration
	Concurrency     config.Concurrency
	Logger          *slog.Logger

	sem     *semaphore.Weighted
	semOnce sync.Once
}

// permits returns availableParallelismMultiplier x GOMAXPROCS, the
// concurrency bound for in-flight requests this process accepts at
// once, falling back to 4x when unconfigured.
func (s *Service) permits() int64 {
	m := s.Concurrency.AvailableParallelismMultiplier
	if m <= 0 {
		m = 4
	}
	return int64(m * runtime.GOMAXPROCS(0))
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) semaphore() *semaphore.Weighted {
	s.semOnce.Do(func() {
		s.sem = semaphore.NewWeighted(s.permits())
	})
	return s.sem
}

// Search runs req against this shard, honoring the concurrency semaphore
// and the request/default deadline.
func (s *Service) Search(ctx context.Context, req wire.SearcherRequest) (wire.SearcherResponse, error) {
	sem := s.semaphore()
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, s.queueTimeout())
	defer cancelAcquire()
	if err := sem.Acquire(acquireCtx, 1); err != nil {
		return wire.SearcherResponse{}, fmt.Errorf("searcher: %w", apierr.ErrOverloaded)
	}
	defer sem.Release(1)

	deadline := s.DefaultDeadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	res, err := s.Executor.Execute(runCtx, req.Query, 0)
	if err != nil {
		if runCtx.Err() != nil {
			if errors.Is(runCtx.Err(), context.Canceled) {
				return wire.SearcherResponse{}, fmt.Errorf("searcher: %w", apierr.ErrCancelled)
			}
			return wire.SearcherResponse{}, fmt.Errorf("searcher: %w", apierr.ErrDeadline)
		}
		return wire.SearcherResponse{}, err
	}

	parents, children := wire.Flatten(res.Documents)
	resp := wire.SearcherResponse{
		ShardID:                req.ShardID,
		Documents:              parents,
		Children:                children,
		TotalMatchedDocuments:  res.TotalHits,
		Facets:                 wire.FacetsToWire(res.Facets),
		FacetsApproximate:      res.FacetsApproximate,
	}
	if req.IncludeMetrics {
		resp.Metrics = map[string]float64{"io_failures": float64(res.IOFailures)}
	}
	return resp, nil
}

func (s *Service) queueTimeout() time.Duration {
	if s.Concurrency.QueueTimeout > 0 {
		return s.Concurrency.QueueTimeout
	}
	return 5 * time.Second
}
