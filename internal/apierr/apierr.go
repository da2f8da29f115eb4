// Package apierr defines the error-kind taxonomy shared by the searcher,
// broker and join executor: sentinel values identifying a failure class,
// always wrapped with context via fmt.Errorf's %w so callers can recover
// the kind with errors.Is while still getting a descriptive message.
package apierr

import "errors"

var (
	// ErrJoinTooLarge is returned when an inner join's materialized
	// document count exceeds the configured maximum cardinality.
	ErrJoinTooLarge = errors.New("join result too large")
	// ErrDepthExceeded is returned when nested join recursion exceeds the
	// configured maximum depth.
	ErrDepthExceeded = errors.New("join nesting depth exceeded")
	// ErrDeadline is returned when a request's deadline is reached before
	// completion.
	ErrDeadline = errors.New("request deadline exceeded")
	// ErrCancelled is returned when the client or a parent context is
	// cancelled mid-request.
	ErrCancelled = errors.New("request cancelled")
	// ErrOverloaded is returned when a concurrency semaphore rejects a
	// request after its queue timeout.
	ErrOverloaded = errors.New("searcher overloaded")
	// ErrIndexUnavailable is returned when a shard's index snapshot is
	// missing or corrupted.
	ErrIndexUnavailable = errors.New("index snapshot unavailable")
	// ErrIOFailure names the failure class of a stored-field or doc-value
	// read for a document. The hydrator does not return it: it counts such
	// failures in its Stats and drops the document.
	ErrIOFailure = errors.New("document io failure")
	// ErrPartialFailure is returned by the broker when the number of
	// failed shards exceeds its tolerance.
	ErrPartialFailure = errors.New("too many shards failed")
)
