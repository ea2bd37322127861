package subscription

import (
	"sync"

	"github.com/alphadose/haxmap"
)

// Monitors hands out one mutex per listener instance. Every synchronized
// handler of an instance locks the same mutex, whichever group it belongs to.
// A mutex lives as long as the Monitors: an instance that unsubscribes and
// subscribes again keeps excluding invocations that are still running.
type Monitors struct {
	locks *haxmap.Map[uintptr, *sync.Mutex]
}

func NewMonitors() *Monitors {
	return &Monitors{locks: haxmap.New[uintptr, *sync.Mutex]()}
}

// For returns the mutex of the listener with the given identity.
func (m *Monitors) For(id uintptr) *sync.Mutex {
	mu, _ := m.locks.GetOrCompute(id, func() *sync.Mutex { return new(sync.Mutex) })
	return mu
}

func (m *Monitors) Len() int {
	return int(m.locks.Len())
}
