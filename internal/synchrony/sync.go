package synchrony

import (
	"context"
	"sync/atomic"
)

// Sync delivers on the publishing goroutine before Publish returns.
type Sync struct {
	closed      atomic.Bool
	delivered   atomic.Uint64
	invocations atomic.Uint64
}

func NewSync() *Sync {
	return &Sync{}
}

func (s *Sync) Publish(p Publication) error {
	if s.closed.Load() {
		return ErrShutdown
	}
	n := p.Deliver()
	s.delivered.Add(1)
	s.invocations.Add(uint64(n))
	return nil
}

// HasPendingWork is always false: nothing outlives a Publish call.
func (s *Sync) HasPendingWork() bool {
	return false
}

func (s *Sync) Shutdown(context.Context) error {
	s.closed.Store(true)
	return nil
}

func (s *Sync) Stats() Stats {
	delivered := s.delivered.Load()
	return Stats{
		Enqueued:    delivered,
		Delivered:   delivered,
		Invocations: s.invocations.Load(),
	}
}
