package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/casualjim/mbus"
	"github.com/casualjim/mbus/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

type tick struct{ seq int }

func (t tick) String() string { return fmt.Sprintf("tick-%d", t.seq) }

var errInjected = errors.New("injected failure")

type counter struct {
	calls     atomic.Int64
	failEvery int64
}

func (c *counter) hit() error {
	n := c.calls.Add(1)
	if c.failEvery > 0 && n%c.failEvery == 0 {
		return errInjected
	}
	return nil
}

// tickListener handles the exact message type.
type tickListener struct{ counter }

func (l *tickListener) OnTick(tick) error { return l.hit() }

// stringerListener receives ticks through an interface they implement.
type stringerListener struct{ counter }

func (l *stringerListener) OnStringer(fmt.Stringer) error { return l.hit() }

// batchListener receives ticks through a variadic handler.
type batchListener struct{ counter }

func (l *batchListener) OnTicks(...tick) error { return l.hit() }

type hitCounter interface {
	hit() error
	count() int64
}

func (c *counter) count() int64 { return c.calls.Load() }

// newListener cycles through the handler shapes so that a run exercises
// exact, interface and variadic resolution.
func newListener(i int, failEvery int) hitCounter {
	n := int64(failEvery)
	switch i % 3 {
	case 0:
		return &tickListener{counter{failEvery: n}}
	case 1:
		return &stringerListener{counter{failEvery: n}}
	default:
		return &batchListener{counter{failEvery: n}}
	}
}

// Result is the outcome of one run.
type Result struct {
	Config     Config
	Deliveries int64
	Errors     int64
	Duration   time.Duration
	Stats      mbus.Stats
}

// Throughput is the number of published messages per second.
func (r Result) Throughput() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Config.Messages) / r.Duration.Seconds()
}

type pendingWork interface {
	HasPendingWork() bool
}

// drain polls w until it has no pending work or ctx is done.
func drain(ctx context.Context, w pendingWork, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for w.HasPendingWork() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Run subscribes the configured listeners, publishes the messages from
// concurrent publishers and waits until the bus has no pending work before
// taking the time.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	var failures atomic.Int64
	bus := mbus.New(
		mbus.WithWorkers(cfg.Workers),
		mbus.WithQueueSize(cfg.QueueSize),
		mbus.WithDeadMessages(false),
		mbus.WithErrorHandlers(mbus.ErrorHandlerFunc(func(*mbus.PublicationError) {
			failures.Add(1)
		})),
	)

	listeners := make([]hitCounter, cfg.Listeners)
	for i := range listeners {
		listeners[i] = newListener(i, cfg.FailEvery)
		if err := bus.Subscribe(listeners[i]); err != nil {
			return Result{}, fmt.Errorf("subscribe listener %d: %w", i, err)
		}
	}

	publish := bus.Publish
	if cfg.Async {
		publish = bus.PublishAsync
	}

	slog.Debug("starting benchmark",
		slog.Int("listeners", cfg.Listeners),
		slog.Int("messages", cfg.Messages),
		slog.Int("publishers", cfg.Publishers),
		slog.Bool("async", cfg.Async),
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for p := range cfg.Publishers {
		g.Go(func() error {
			for seq := p; seq < cfg.Messages; seq += cfg.Publishers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := publish(tick{seq: seq}); err != nil {
					return fmt.Errorf("publish %d: %w", seq, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = bus.Shutdown(context.Background())
		return Result{}, err
	}
	if err := drain(ctx, bus, time.Millisecond); err != nil {
		slog.Error("benchmark did not drain", slogx.Error(err))
		_ = bus.Shutdown(context.Background())
		return Result{}, err
	}
	elapsed := time.Since(start)
	if err := bus.Shutdown(ctx); err != nil {
		return Result{}, err
	}

	var deliveries int64
	for _, l := range listeners {
		deliveries += l.count()
	}
	return Result{
		Config:     cfg,
		Deliveries: deliveries,
		Errors:     failures.Load(),
		Duration:   elapsed,
		Stats:      bus.Stats(),
	}, nil
}
