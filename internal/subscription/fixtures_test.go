package subscription

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/casualjim/mbus/handler"
	"github.com/casualjim/mbus/publication"
)

type event struct{ id int }

func (e *event) String() string { return fmt.Sprintf("event-%d", e.id) }

type calls struct {
	mu  sync.Mutex
	got []any
}

func (c *calls) record(v ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, v...)
}

func (c *calls) all() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.got...)
}

type eventListener struct{ calls }

func (l *eventListener) OnEvent(e *event) { l.record(e) }

type stringerListener struct{ calls }

func (l *stringerListener) OnStringer(s fmt.Stringer) { l.record(s) }

type strictStringerListener struct{ calls }

func (l *strictStringerListener) OnStringer(s fmt.Stringer) { l.record(s) }
func (l *strictStringerListener) HandlerConfig() map[string]handler.Config {
	return map[string]handler.Config{"OnStringer": {RejectSubtypes: true}}
}

type anyListener struct{ calls }

func (l *anyListener) OnAny(msgs ...any) { l.record(len(msgs)) }

type stringersListener struct{ calls }

func (l *stringersListener) OnStringers(msgs ...fmt.Stringer) { l.record(len(msgs)) }

type wordsListener struct{ calls }

func (l *wordsListener) OnWords(words ...string) { l.record(words) }

type pairListener struct{ calls }

func (l *pairListener) OnPair(s string, n int) { l.record(s, n) }
func (l *pairListener) OnMixed(s fmt.Stringer, v any) { l.record(s, v) }
func (l *pairListener) OnTriple(a, b, c string) { l.record(a + b + c) }

type noHandlers struct{ calls }

func (l *noHandlers) Handle(e *event) {}

type flakyListener struct {
	calls
	fail bool
	boom bool
}

var errFlaky = errors.New("flaky")

func (l *flakyListener) OnEvent(e *event) error {
	if l.boom {
		panic("boom")
	}
	if l.fail {
		return errFlaky
	}
	l.record(e)
	return nil
}

// exclusiveListener tracks how many of its synchronized handlers run at once.
type exclusiveListener struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	total    atomic.Int32
}

func (l *exclusiveListener) enter() {
	n := l.inFlight.Add(1)
	for {
		seen := l.maxSeen.Load()
		if n <= seen || l.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(100 * time.Microsecond)
	l.total.Add(1)
	l.inFlight.Add(-1)
}

func (l *exclusiveListener) OnEvent(*event) { l.enter() }
func (l *exclusiveListener) OnStringer(fmt.Stringer) { l.enter() }
func (l *exclusiveListener) HandlerConfig() map[string]handler.Config {
	return map[string]handler.Config{
		"OnEvent":    {Synchronized: true},
		"OnStringer": {Synchronized: true},
	}
}

// gatedListener holds every synchronized invocation until release is closed.
type gatedListener struct {
	entered  chan struct{}
	release  chan struct{}
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newGatedListener() *gatedListener {
	return &gatedListener{entered: make(chan struct{}, 8), release: make(chan struct{})}
}

func (l *gatedListener) OnEvent(*event) {
	n := l.inFlight.Add(1)
	for {
		seen := l.maxSeen.Load()
		if n <= seen || l.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	l.entered <- struct{}{}
	<-l.release
	l.inFlight.Add(-1)
}

func (l *gatedListener) HandlerConfig() map[string]handler.Config {
	return map[string]handler.Config{"OnEvent": {Synchronized: true}}
}

type collectingSink struct {
	mu     sync.Mutex
	errors []*publication.Error
}

func (s *collectingSink) HandlePublicationError(err *publication.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *collectingSink) all() []*publication.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*publication.Error(nil), s.errors...)
}

func typesOf(values ...any) []reflect.Type {
	out := make([]reflect.Type, len(values))
	for i, v := range values {
		out[i] = reflect.TypeOf(v)
	}
	return out
}

func names(groups []*Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Descriptor().Name())
	}
	return out
}
