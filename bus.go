package mbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/casualjim/mbus/handler"
	"github.com/casualjim/mbus/internal/subscription"
	"github.com/casualjim/mbus/internal/synchrony"
	"github.com/casualjim/mbus/pkg/slogx"
	"github.com/casualjim/mbus/publication"
	"github.com/fogfish/opts"
	"go.uber.org/multierr"
)

// Bus is an in-process message bus. Listeners subscribe with Subscribe and
// receive the messages handed to Publish or PublishAsync on their handler
// methods.
//
// A Bus is safe for concurrent use.
type Bus struct {
	workers           int
	queueSize         int
	abandonOnShutdown bool
	scanner           handler.Scanner
	errorHandlers     []ErrorHandler
	logger            *slog.Logger
	deadMessages      bool
	shutdownTimeout   time.Duration

	registry *subscription.Registry
	sink     publication.ErrorHandler
	sync     *synchrony.Sync
	async    *synchrony.Async
}

// New creates a bus and starts the workers of its asynchronous path. It
// panics when an option is invalid. Call Shutdown to stop the workers.
//
// Example:
//
//	bus := mbus.New(
//		mbus.WithWorkers(4),
//		mbus.WithErrorHandlers(mbus.LoggingErrorHandler(nil)),
//	)
//	defer bus.Shutdown(context.Background())
func New(options ...opts.Option[Bus]) *Bus {
	b := &Bus{
		workers:         DefaultWorkers,
		queueSize:       DefaultQueueSize,
		deadMessages:    true,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	if err := opts.Apply(b, options); err != nil {
		panic(err)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With(slogx.LoggerName("mbus"))

	if len(b.errorHandlers) == 0 {
		b.errorHandlers = []ErrorHandler{LoggingErrorHandler(b.logger)}
	}
	b.sink = publication.NewCompositeErrorHandler(b.errorHandlers...)
	b.registry = subscription.NewRegistry(b.scanner)
	b.sync = synchrony.NewSync()
	b.async = synchrony.NewAsync(
		synchrony.Workers(b.workers),
		synchrony.QueueSize(b.queueSize),
		synchrony.AbandonOnShutdown(b.abandonOnShutdown),
		synchrony.Logger(b.logger),
	)
	return b
}

// Subscribe registers the handlers of listener, which must be a non-nil
// pointer. A listener without handlers is accepted and ignored. Subscribing
// the same listener twice has no further effect.
func (b *Bus) Subscribe(listener any) error {
	return b.registry.Subscribe(listener)
}

// Unsubscribe removes listener from the bus and reports whether it was
// subscribed. Publications already resolved may still reach it.
func (b *Bus) Unsubscribe(listener any) bool {
	return b.registry.Unsubscribe(listener)
}

// Publish delivers messages to every matching handler before returning.
// Handler failures go to the error handlers and are not returned.
func (b *Bus) Publish(messages ...any) error {
	p, err := b.publication(messages)
	if err != nil {
		return err
	}
	return b.sync.Publish(p)
}

// PublishAsync resolves the receivers of messages and queues the delivery.
// It blocks while the queue is full and fails with ErrShutdown once Shutdown
// was called.
func (b *Bus) PublishAsync(messages ...any) error {
	p, err := b.publication(messages)
	if err != nil {
		return err
	}
	return b.async.Publish(p)
}

func (b *Bus) publication(messages []any) (synchrony.Publication, error) {
	if len(messages) == 0 {
		return synchrony.Publication{}, ErrNoMessages
	}
	types := make([]reflect.Type, len(messages))
	for i, m := range messages {
		if m == nil {
			return synchrony.Publication{}, fmt.Errorf("%w: argument %d", ErrNilMessage, i)
		}
		types[i] = reflect.TypeOf(m)
	}

	groups := b.registry.Resolve(types...)
	if len(groups) == 0 && b.deadMessages && !isDeadMessage(messages) {
		dead := DeadMessage{Messages: messages}
		messages = []any{dead}
		groups = b.registry.Resolve(deadMessageType)
	}
	return synchrony.Publication{Groups: groups, Messages: messages, Sink: b.sink}, nil
}

// HasPendingWork reports whether asynchronous publications are still queued
// or being delivered.
func (b *Bus) HasPendingWork() bool {
	return b.async.HasPendingWork()
}

// Shutdown stops both publish paths and waits until queued publications were
// delivered, or abandoned when the bus was created with
// WithAbandonOnShutdown. The wait is bounded by ctx and by the shutdown
// timeout. Shutdown can be called more than once.
func (b *Bus) Shutdown(ctx context.Context) error {
	if b.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.shutdownTimeout)
		defer cancel()
	}

	b.logger.Debug("shutting down", slog.Bool("abandon", b.abandonOnShutdown))
	start := time.Now()

	err := multierr.Combine(
		b.sync.Shutdown(ctx),
		b.async.Shutdown(ctx),
	)
	if errors.Is(err, ErrShutdownTimeout) {
		b.logger.Warn("shutdown timed out with pending publications", slogx.Error(err))
		return err
	}
	if err != nil {
		b.logger.Error("shutdown failed", slogx.Error(err))
		return err
	}
	b.logger.Debug("shut down", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Stats are cumulative counters of a bus.
type Stats struct {
	// Subscriptions counts listener instances per handler group, so a
	// listener with two handlers is counted twice.
	Subscriptions int
	// Groups is the number of distinct handlers known to the bus.
	Groups int
	Sync   synchrony.Stats
	Async  synchrony.Stats
}

func (b *Bus) Stats() Stats {
	s := Stats{
		Sync:  b.sync.Stats(),
		Async: b.async.Stats(),
	}
	for _, g := range b.registry.Groups() {
		s.Groups++
		s.Subscriptions += g.Len()
	}
	return s
}
