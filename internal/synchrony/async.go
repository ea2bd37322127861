package synchrony

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/casualjim/mbus/pkg/slogx"
	"github.com/fogfish/opts"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 1024
)

// Async queues publications and delivers them from a fixed pool of workers.
//
// Workers take publications in submission order. With a single worker that
// order is also the delivery order; with several workers publications run
// concurrently and their deliveries to shared listeners interleave.
type Async struct {
	workers   int
	queueSize int
	abandon   bool
	logger    *slog.Logger

	mu         sync.RWMutex
	closed     bool
	abandoning atomic.Bool
	queue      chan Publication
	closing    chan struct{}
	senders    sync.WaitGroup
	pending    atomic.Int64
	wg         sync.WaitGroup
	done       chan struct{}

	enqueued    atomic.Uint64
	delivered   atomic.Uint64
	abandoned   atomic.Uint64
	invocations atomic.Uint64
}

// Workers sets the number of worker goroutines.
func Workers(n int) opts.Option[Async] {
	return opts.Type[Async](func(a *Async) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, n)
		}
		a.workers = n
		return nil
	})
}

// QueueSize bounds the number of publications waiting for a worker. Publish
// blocks while the queue is full. Zero makes every Publish wait for a worker.
func QueueSize(n int) opts.Option[Async] {
	return opts.Type[Async](func(a *Async) error {
		if n < 0 {
			return fmt.Errorf("%w: queue size must not be negative, got %d", ErrInvalidConfig, n)
		}
		a.queueSize = n
		return nil
	})
}

var (
	// AbandonOnShutdown drops queued publications on Shutdown instead of
	// delivering them. Publications already being delivered still complete.
	AbandonOnShutdown = opts.ForName[Async, bool]("abandon")
	// Logger receives worker diagnostics.
	Logger = opts.ForName[Async, *slog.Logger]("logger")
)

// NewAsync starts the workers. It panics when an option is invalid.
func NewAsync(options ...opts.Option[Async]) *Async {
	a := &Async{
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		logger:    slog.Default(),
	}
	if err := opts.Apply(a, options); err != nil {
		panic(err)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With(slogx.LoggerName("synchrony.async"))

	a.queue = make(chan Publication, a.queueSize)
	a.closing = make(chan struct{})
	a.done = make(chan struct{})
	a.wg.Add(a.workers)
	for range a.workers {
		go a.work()
	}
	go func() {
		a.wg.Wait()
		close(a.done)
	}()
	return a
}

// Publish queues p. It blocks while the queue is full and returns
// ErrShutdown when Shutdown is called before p found a place in the queue.
func (a *Async) Publish(p Publication) error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return ErrShutdown
	}
	a.senders.Add(1)
	a.mu.RUnlock()
	defer a.senders.Done()

	a.pending.Add(1)
	select {
	case a.queue <- p:
		a.enqueued.Add(1)
		return nil
	case <-a.closing:
		a.pending.Add(-1)
		return ErrShutdown
	}
}

func (a *Async) work() {
	defer a.wg.Done()

	for p := range a.queue {
		if a.abandoning.Load() {
			a.abandoned.Add(1)
			a.pending.Add(-1)
			continue
		}
		a.deliver(p)
	}
}

func (a *Async) deliver(p Publication) {
	defer a.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("publication delivery panicked",
				slog.Any("panic", r),
				slogx.Types("messages", p.Messages),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	n := p.Deliver()
	a.invocations.Add(uint64(n))
	a.delivered.Add(1)
}

// HasPendingWork reports whether a publication is queued or being delivered.
func (a *Async) HasPendingWork() bool {
	return a.pending.Load() > 0
}

// Shutdown stops accepting publications, rejects publishers still blocked on
// a full queue, then drains or abandons the queue and waits for the workers. When ctx expires first it returns an error
// wrapping both ErrShutdownTimeout and the context error; the workers keep
// finishing in the background. Calling Shutdown again waits again.
func (a *Async) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		if a.abandon {
			a.abandoning.Store(true)
		}
		close(a.closing)
		// the queue closes once no sender can still write to it
		go func() {
			a.senders.Wait()
			close(a.queue)
		}()
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (a *Async) Stats() Stats {
	return Stats{
		Enqueued:    a.enqueued.Load(),
		Delivered:   a.delivered.Load(),
		Abandoned:   a.abandoned.Load(),
		Invocations: a.invocations.Load(),
		QueueDepth:  len(a.queue),
	}
}
