package mbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/casualjim/mbus/handler"
	"github.com/casualjim/mbus/internal/synchrony"
	"github.com/fogfish/opts"
)

const (
	// DefaultShutdownTimeout bounds Shutdown when the caller's context has no
	// earlier deadline.
	DefaultShutdownTimeout = 30 * time.Second
	// DefaultWorkers is the number of asynchronous delivery goroutines.
	DefaultWorkers = synchrony.DefaultWorkers
	// DefaultQueueSize is the capacity of the asynchronous queue.
	DefaultQueueSize = synchrony.DefaultQueueSize
)

// WithWorkers sets the number of goroutines delivering asynchronous
// publications. A single worker delivers in publish order.
func WithWorkers(n int) opts.Option[Bus] {
	return opts.Type[Bus](func(b *Bus) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, n)
		}
		b.workers = n
		return nil
	})
}

// WithQueueSize bounds the asynchronous queue. PublishAsync blocks while it
// is full.
func WithQueueSize(n int) opts.Option[Bus] {
	return opts.Type[Bus](func(b *Bus) error {
		if n < 0 {
			return fmt.Errorf("%w: queue size must not be negative, got %d", ErrInvalidConfig, n)
		}
		b.queueSize = n
		return nil
	})
}

// WithErrorHandlers replaces the default logging error handler. Every handler
// receives every publication error, in the given order.
func WithErrorHandlers(handlers ...ErrorHandler) opts.Option[Bus] {
	return opts.Type[Bus](func(b *Bus) error {
		for i, h := range handlers {
			if h == nil {
				return fmt.Errorf("%w: error handler %d is nil", ErrInvalidConfig, i)
			}
		}
		b.errorHandlers = append(b.errorHandlers, handlers...)
		return nil
	})
}

// WithScanner replaces the handler scanner, handler.NewScanner() by default.
func WithScanner(scanner handler.Scanner) opts.Option[Bus] {
	return opts.Type[Bus](func(b *Bus) error {
		if scanner == nil {
			return fmt.Errorf("%w: scanner is nil", ErrInvalidConfig)
		}
		b.scanner = scanner
		return nil
	})
}

var (
	// WithAbandonOnShutdown makes Shutdown drop queued asynchronous
	// publications instead of delivering them.
	WithAbandonOnShutdown = opts.ForName[Bus, bool]("abandonOnShutdown")

	// WithLogger sets the logger for lifecycle events and the default error
	// handler. It defaults to slog.Default().
	WithLogger = opts.ForName[Bus, *slog.Logger]("logger")

	// WithDeadMessages toggles the republication of unhandled messages as a
	// DeadMessage. Enabled by default.
	WithDeadMessages = opts.ForName[Bus, bool]("deadMessages")

	// WithShutdownTimeout bounds Shutdown. Zero or negative leaves only the
	// caller's context.
	WithShutdownTimeout = opts.ForName[Bus, time.Duration]("shutdownTimeout")
)
