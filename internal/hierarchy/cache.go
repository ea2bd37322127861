package hierarchy

import (
	"reflect"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/casualjim/mbus/internal/registry"
	"github.com/casualjim/mbus/pkg/reflectx"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes supertype lists and slice types. The zero value is not usable,
// create one with New.
type Cache struct {
	mu       sync.Mutex
	known    map[reflect.Type]struct{}
	universe atomic.Pointer[[]reflect.Type]

	supers registry.TypeMap[*entry]
	arrays registry.TypeMap[reflect.Type]
	flight singleflight.Group
}

type entry struct {
	version int
	// interfaces holds the implemented interfaces in universe order, without any.
	interfaces []reflect.Type
	types      []reflect.Type
}

// New creates an empty cache whose universe only contains any.
func New() *Cache {
	c := &Cache{
		known:  make(map[reflect.Type]struct{}),
		supers: registry.New[*entry](),
		arrays: registry.New[reflect.Type](),
	}
	c.universe.Store(&[]reflect.Type{})
	return c
}

// Register adds an interface type to the universe of known supertypes.
// Slice types are unwrapped to their innermost element first. It reports
// whether the universe grew: non-interface types, any and interfaces that are
// already known are ignored.
func (c *Cache) Register(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Interface || t == reflectx.AnyType() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.known[t]; ok {
		return false
	}
	c.known[t] = struct{}{}

	current := *c.universe.Load()
	next := append(slices.Clip(current), t)
	c.universe.Store(&next)
	return true
}

// Universe returns the registered interface types in registration order.
func (c *Cache) Universe() []reflect.Type {
	return slices.Clone(*c.universe.Load())
}

// SupertypesOf returns the supertypes of t: the known interfaces it implements
// followed by any. t itself is never part of the result and any has no
// supertypes. The returned slice is shared and must not be modified.
func (c *Cache) SupertypesOf(t reflect.Type) []reflect.Type {
	if t == nil {
		return nil
	}
	version := len(*c.universe.Load())
	if e, ok := c.supers.Get(t); ok && e.version >= version {
		return e.types
	}

	v, _, _ := c.flight.Do(flightKey(t, version), func() (any, error) {
		return c.compute(t), nil
	})
	return v.(*entry).types
}

// flightKey includes the universe version: a computation started against an
// older universe must not be joined by callers that already see a newer one.
func flightKey(t reflect.Type, version int) string {
	return strconv.FormatUint(uint64(reflectx.TypeKey(t)), 16) + "@" + strconv.Itoa(version)
}

func (c *Cache) compute(t reflect.Type) *entry {
	universe := *c.universe.Load()
	prev, ok := c.supers.Get(t)
	if ok && prev.version >= len(universe) {
		return prev
	}

	var e *entry
	if t.Kind() == reflect.Slice {
		e = c.computeSlice(t, len(universe))
	} else {
		e = computeDirect(t, universe, prev)
	}
	c.supers.Set(t, e)
	return e
}

func computeDirect(t reflect.Type, universe []reflect.Type, prev *entry) *entry {
	var interfaces []reflect.Type
	from := 0
	if prev != nil {
		interfaces = slices.Clone(prev.interfaces)
		from = prev.version
	}
	for _, iface := range universe[from:] {
		if iface != t && t.Implements(iface) {
			interfaces = append(interfaces, iface)
		}
	}

	types := slices.Clip(slices.Clone(interfaces))
	if t != reflectx.AnyType() {
		types = append(types, reflectx.AnyType())
	}
	return &entry{version: len(universe), interfaces: interfaces, types: types}
}

func (c *Cache) computeSlice(t reflect.Type, version int) *entry {
	elems := c.SupertypesOf(t.Elem())
	types := make([]reflect.Type, 0, len(elems))
	for _, s := range elems {
		types = append(types, c.ArrayTypeOf(s))
	}
	return &entry{version: version, types: types}
}

// ArrayTypeOf returns the slice type whose element type is t.
func (c *Cache) ArrayTypeOf(t reflect.Type) reflect.Type {
	st, _ := c.arrays.GetOrCompute(t, func() reflect.Type {
		return reflect.SliceOf(t)
	})
	return st
}
