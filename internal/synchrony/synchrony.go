package synchrony

import (
	"context"
	"errors"

	"github.com/casualjim/mbus/internal/subscription"
	"github.com/casualjim/mbus/publication"
)

var (
	// ErrShutdown is returned when publishing through a strategy that was shut down.
	ErrShutdown = errors.New("dispatcher is shut down")
	// ErrShutdownTimeout is returned when workers did not finish before the
	// shutdown context expired.
	ErrShutdownTimeout = errors.New("dispatcher did not quiesce before the deadline")
	// ErrInvalidConfig is returned by options with out of range values.
	ErrInvalidConfig = errors.New("invalid dispatcher configuration")
)

// Publication is one resolved publish: the messages and the groups that
// receive them. Failures go to Sink.
type Publication struct {
	Groups   []*subscription.Group
	Messages []any
	Sink     publication.ErrorHandler
}

// Deliver dispatches the messages to every group in order and returns the
// number of successful handler invocations.
func (p Publication) Deliver() int {
	var invocations int
	for _, g := range p.Groups {
		invocations += g.Dispatch(p.Sink, p.Messages...)
	}
	return invocations
}

// Synchrony is a delivery strategy.
type Synchrony interface {
	// Publish delivers p or schedules it for delivery.
	Publish(p Publication) error
	// HasPendingWork reports whether accepted publications are still queued
	// or being delivered.
	HasPendingWork() bool
	// Shutdown stops accepting publications and waits for in-flight work.
	Shutdown(ctx context.Context) error
	Stats() Stats
}

// Stats are cumulative counters of a strategy.
type Stats struct {
	// Enqueued counts accepted publications.
	Enqueued uint64
	// Delivered counts publications whose delivery completed.
	Delivered uint64
	// Abandoned counts queued publications dropped by an abandoning shutdown.
	Abandoned uint64
	// Invocations counts successful handler invocations.
	Invocations uint64
	// QueueDepth is the number of publications waiting for a worker.
	QueueDepth int
}

var (
	_ Synchrony = (*Sync)(nil)
	_ Synchrony = (*Async)(nil)
)
