package subscription

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/alphadose/haxmap"
)

type entry struct {
	id       uintptr
	listener any
	value    reflect.Value
	monitor  *sync.Mutex
}

// listenerSet is an identity set with lock-free iteration. Readers load an
// immutable snapshot, writers serialize on mu and publish a new snapshot.
// An iteration never observes a half-applied write: it sees the set either
// before or after each mutation.
type listenerSet struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[[]*entry]
	index    *haxmap.Map[uintptr, *entry]
}

func newListenerSet() *listenerSet {
	s := &listenerSet{index: haxmap.New[uintptr, *entry]()}
	s.snapshot.Store(&[]*entry{})
	return s
}

func (s *listenerSet) add(e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Get(e.id); ok {
		return false
	}
	current := *s.snapshot.Load()
	next := append(slices.Clip(current), e)
	s.index.Set(e.id, e)
	s.snapshot.Store(&next)
	return true
}

func (s *listenerSet) remove(id uintptr) bool {
	if _, ok := s.index.Get(id); !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Get(id); !ok {
		return false
	}
	next := slices.DeleteFunc(slices.Clone(*s.snapshot.Load()), func(e *entry) bool {
		return e.id == id
	})
	s.snapshot.Store(&next)
	s.index.Del(id)
	return true
}

func (s *listenerSet) contains(id uintptr) bool {
	_, ok := s.index.Get(id)
	return ok
}

func (s *listenerSet) load() []*entry {
	return *s.snapshot.Load()
}

func (s *listenerSet) len() int {
	return len(s.load())
}
