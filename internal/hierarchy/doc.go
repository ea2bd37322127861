// Package hierarchy computes and memoizes the "supertypes" of Go types for
// message resolution.
//
// Go has no class inheritance, so the relation is defined over a universe of
// interface types the bus knows about: the supertypes of T are the known
// interfaces T implements, in the order they became known, followed by any.
// For a slice type []E the supertypes are []S for every supertype S of E, which
// lets a handler declared on []fmt.Stringer receive a []*Event.
//
// Design decisions:
//   - Owned state: a Cache belongs to one registry, there are no package globals
//   - Append-only universe: interfaces are registered as handlers declare them
//     and never removed, so memoized answers are extended, never invalidated
//   - Versioned entries: each memo records the universe length it covers
//   - Collapsed first use: concurrent misses for one type share a computation
//     through singleflight
//
// Example usage:
//
//	cache := hierarchy.New()
//	cache.Register(reflect.TypeFor[fmt.Stringer]())
//
//	cache.SupertypesOf(reflect.TypeFor[*Event]())  // [fmt.Stringer interface {}]
//	cache.ArrayTypeOf(reflect.TypeFor[*Event]())   // []*Event
package hierarchy
