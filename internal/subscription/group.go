package subscription

import (
	"errors"
	"reflect"

	"github.com/casualjim/mbus/handler"
	"github.com/casualjim/mbus/pkg/reflectx"
	"github.com/casualjim/mbus/publication"
)

// Group holds the listener instances that share one handler descriptor.
// An empty group is inert and stays reusable.
type Group struct {
	descriptor *handler.Descriptor
	listeners  *listenerSet
	monitors   *Monitors
}

// NewGroup creates an empty group for d. Synchronized handlers lock the
// per-instance mutexes of monitors; a nil monitors gives the group its own.
func NewGroup(d *handler.Descriptor, monitors *Monitors) *Group {
	if monitors == nil {
		monitors = NewMonitors()
	}
	return &Group{
		descriptor: d,
		listeners:  newListenerSet(),
		monitors:   monitors,
	}
}

func (g *Group) Descriptor() *handler.Descriptor {
	return g.descriptor
}

// Subscribe adds listener by identity. It returns false when the listener is
// already present or cannot receive this group's handler.
func (g *Group) Subscribe(listener any) bool {
	v := reflect.ValueOf(listener)
	id, ok := reflectx.Identity(v)
	if !ok || !v.Type().AssignableTo(g.descriptor.Owner()) {
		return false
	}
	if g.listeners.contains(id) {
		return false
	}

	e := &entry{id: id, listener: listener, value: v}
	if g.descriptor.Synchronized() {
		e.monitor = g.monitors.For(id)
	}
	return g.listeners.add(e)
}

// Unsubscribe removes listener by identity and reports whether it was present.
func (g *Group) Unsubscribe(listener any) bool {
	id, ok := reflectx.Identity(reflect.ValueOf(listener))
	if !ok {
		return false
	}
	return g.listeners.remove(id)
}

func (g *Group) Contains(listener any) bool {
	id, ok := reflectx.Identity(reflect.ValueOf(listener))
	return ok && g.listeners.contains(id)
}

func (g *Group) IsEmpty() bool {
	return g.listeners.len() == 0
}

func (g *Group) Len() int {
	return g.listeners.len()
}

// Listeners returns the currently subscribed instances.
func (g *Group) Listeners() []any {
	snapshot := g.listeners.load()
	out := make([]any, len(snapshot))
	for i, e := range snapshot {
		out[i] = e.listener
	}
	return out
}

// Dispatch invokes the handler on every listener visible when it starts and
// returns the number of successful invocations. A failure is reported to sink
// and does not stop delivery to the remaining listeners.
func (g *Group) Dispatch(sink publication.ErrorHandler, messages ...any) int {
	snapshot := g.listeners.load()
	if len(snapshot) == 0 {
		return 0
	}

	var delivered int
	for _, e := range snapshot {
		if err := g.invoke(e, messages); err != nil {
			g.report(sink, e, err, messages)
			continue
		}
		delivered++
	}
	return delivered
}

func (g *Group) invoke(e *entry, messages []any) error {
	if e.monitor != nil {
		e.monitor.Lock()
		defer e.monitor.Unlock()
	}
	return g.descriptor.Invoke(e.value, messages)
}

func (g *Group) report(sink publication.ErrorHandler, e *entry, err error, messages []any) {
	if sink == nil {
		return
	}
	kind, cause := publication.KindOther, err
	var ie *handler.InvocationError
	if errors.As(err, &ie) {
		kind, cause = ie.Kind, ie.Err
	}
	sink.HandlePublicationError(publication.New(kind, cause, g.descriptor.Name(), e.listener, messages))
}
