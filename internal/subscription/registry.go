package subscription

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/casualjim/mbus/handler"
	"github.com/casualjim/mbus/internal/hierarchy"
	"github.com/casualjim/mbus/internal/registry"
	"github.com/casualjim/mbus/pkg/reflectx"
)

// ErrInvalidListener is returned when subscribing something that has no
// identity: listeners must be non-nil pointers.
var ErrInvalidListener = errors.New("invalid listener")

// Registry maps message types to the groups whose handlers accept them.
type Registry struct {
	scanner   handler.Scanner
	hierarchy *hierarchy.Cache
	monitors  *Monitors

	// mu serializes structural changes: scanning a new listener type and
	// adding the groups it introduces.
	mu             sync.Mutex
	byKey          map[string]*Group
	byListenerType registry.TypeMap[[]*Group]
	exact          registry.TypeMap[[]*Group]
	multi          [handler.MaxParameters + 1]atomic.Pointer[[]*Group]
	all            atomic.Pointer[[]*Group]

	caches     atomic.Pointer[caches]
	generation atomic.Uint64
}

// caches holds every resolution derived from the exact groups. The whole
// generation is replaced when a new group appears.
type caches struct {
	generation uint64

	single      registry.TypeMap[[]*Group]
	super       registry.TypeMap[[]*Group]
	varArg      registry.TypeMap[[]*Group]
	varArgSuper registry.TypeMap[[]*Group]

	tuples           *typeTree[[]*Group]
	multi            *typeTree[[]*Group]
	varArgSuperMulti *typeTree[[]*Group]
}

func newCaches(generation uint64) *caches {
	return &caches{
		generation:       generation,
		single:           registry.New[[]*Group](),
		super:            registry.New[[]*Group](),
		varArg:           registry.New[[]*Group](),
		varArgSuper:      registry.New[[]*Group](),
		tuples:           newTypeTree[[]*Group](),
		multi:            newTypeTree[[]*Group](),
		varArgSuperMulti: newTypeTree[[]*Group](),
	}
}

// NewRegistry creates an empty registry. A nil scanner selects
// handler.NewScanner().
func NewRegistry(scanner handler.Scanner) *Registry {
	if scanner == nil {
		scanner = handler.NewScanner()
	}
	r := &Registry{
		scanner:        scanner,
		hierarchy:      hierarchy.New(),
		monitors:       NewMonitors(),
		byKey:          make(map[string]*Group),
		byListenerType: registry.New[[]*Group](),
		exact:          registry.New[[]*Group](),
	}
	for i := range r.multi {
		r.multi[i].Store(&[]*Group{})
	}
	r.all.Store(&[]*Group{})
	r.caches.Store(newCaches(0))
	return r
}

// Subscribe registers every handler of listener. The first listener of a type
// triggers the scan of that type; later ones only join existing groups.
// Subscribing a listener without handlers is a no-op.
func (r *Registry) Subscribe(listener any) error {
	v := reflect.ValueOf(listener)
	if _, ok := reflectx.Identity(v); !ok {
		if listener == nil {
			return fmt.Errorf("%w: nil", ErrInvalidListener)
		}
		return fmt.Errorf("%w: %s is not a non-nil pointer", ErrInvalidListener, reflectx.TypeName(v.Type()))
	}

	groups, err := r.groupsFor(v.Type(), listener)
	if err != nil {
		return err
	}
	for _, g := range groups {
		g.Subscribe(listener)
	}
	return nil
}

// Unsubscribe removes listener from all of its groups and reports whether it
// was subscribed to any of them.
func (r *Registry) Unsubscribe(listener any) bool {
	v := reflect.ValueOf(listener)
	if _, ok := reflectx.Identity(v); !ok {
		return false
	}
	groups, ok := r.byListenerType.Get(v.Type())
	if !ok {
		return false
	}

	var removed bool
	for _, g := range groups {
		if g.Unsubscribe(listener) {
			removed = true
		}
	}
	return removed
}

func (r *Registry) groupsFor(t reflect.Type, listener any) ([]*Group, error) {
	if groups, ok := r.byListenerType.Get(t); ok {
		return groups, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if groups, ok := r.byListenerType.Get(t); ok {
		return groups, nil
	}

	descriptors, err := r.scanner.Scan(t, listener)
	if err != nil {
		return nil, err
	}

	var groups, created []*Group
	for _, d := range descriptors {
		if !d.Enabled() {
			continue
		}
		g, ok := r.byKey[d.Key()]
		if !ok {
			g = NewGroup(d, r.monitors)
			r.byKey[d.Key()] = g
			created = append(created, g)
		}
		if !slices.Contains(groups, g) {
			groups = append(groups, g)
		}
	}

	if len(created) > 0 {
		for _, g := range created {
			for _, p := range g.descriptor.ParameterTypes() {
				r.hierarchy.Register(p)
			}
		}
		for _, g := range created {
			r.index(g)
		}
		// caches are replaced after the new groups are indexed, so a
		// resolution against the fresh generation always sees them
		r.caches.Store(newCaches(r.generation.Add(1)))
	}

	r.byListenerType.Set(t, groups)
	return groups, nil
}

func (r *Registry) index(g *Group) {
	d := g.descriptor
	if d.AcceptsVarArgs() || d.Arity() == 1 {
		key := d.ParameterType(0)
		current, _ := r.exact.Get(key)
		r.exact.Set(key, append(slices.Clip(current), g))
	} else {
		current := *r.multi[d.Arity()].Load()
		next := append(slices.Clip(current), g)
		r.multi[d.Arity()].Store(&next)
	}

	all := append(slices.Clip(*r.all.Load()), g)
	r.all.Store(&all)
}

// Groups returns every group in creation order, empty ones included.
func (r *Registry) Groups() []*Group {
	return *r.all.Load()
}

// GroupsFor returns the groups a listener type was subscribed to.
func (r *Registry) GroupsFor(listenerType reflect.Type) []*Group {
	groups, _ := r.byListenerType.Get(listenerType)
	return groups
}

// Len is the number of groups.
func (r *Registry) Len() int {
	return len(r.Groups())
}

// Generation counts how often the derived caches were replaced.
func (r *Registry) Generation() uint64 {
	return r.caches.Load().generation
}
