package subscription

import (
	"reflect"
	"slices"
)

// Resolve returns the groups whose handlers accept messages of the given
// dynamic types, in resolution order and without duplicates. The result is
// shared between callers and must not be modified.
func (r *Registry) Resolve(types ...reflect.Type) []*Group {
	if len(types) == 0 || slices.Contains(types, nil) {
		return nil
	}

	c := r.caches.Load()
	if len(types) == 1 {
		groups, _ := c.single.GetOrCompute(types[0], func() []*Group {
			return r.resolveSingle(c, types[0])
		})
		return groups
	}
	return c.tuples.getOrCompute(types, func() []*Group {
		return r.resolveMulti(c, types)
	})
}

func (r *Registry) exactGroups(t reflect.Type) []*Group {
	groups, _ := r.exact.Get(t)
	return groups
}

// resolveSingle concatenates, for one type C: the exact groups of C, the
// subtype accepting groups of C's supertypes, the vararg groups of []C and
// the subtype accepting vararg groups of the supertypes of []C.
func (r *Registry) resolveSingle(c *caches, t reflect.Type) []*Group {
	var result []*Group
	result = appendUnique(result, r.exactGroups(t))
	result = appendUnique(result, r.superGroups(c, t))
	if t.Kind() != reflect.Slice {
		result = appendUnique(result, r.varArgGroups(c, t))
		result = appendUnique(result, r.varArgSuperGroups(c, t))
	}
	return slices.Clip(result)
}

func (r *Registry) superGroups(c *caches, t reflect.Type) []*Group {
	groups, _ := c.super.GetOrCompute(t, func() []*Group {
		var result []*Group
		for _, s := range r.hierarchy.SupertypesOf(t) {
			for _, g := range r.exactGroups(s) {
				if g.descriptor.AcceptsSubtypes() {
					result = append(result, g)
				}
			}
		}
		return result
	})
	return groups
}

func (r *Registry) varArgGroups(c *caches, t reflect.Type) []*Group {
	groups, _ := c.varArg.GetOrCompute(t, func() []*Group {
		var result []*Group
		for _, g := range r.exactGroups(r.hierarchy.ArrayTypeOf(t)) {
			if g.descriptor.AcceptsVarArgs() {
				result = append(result, g)
			}
		}
		return result
	})
	return groups
}

func (r *Registry) varArgSuperGroups(c *caches, t reflect.Type) []*Group {
	if t.Kind() == reflect.Slice {
		return nil
	}
	groups, _ := c.varArgSuper.GetOrCompute(t, func() []*Group {
		var result []*Group
		for _, s := range r.hierarchy.SupertypesOf(r.hierarchy.ArrayTypeOf(t)) {
			for _, g := range r.exactGroups(s) {
				if g.descriptor.AcceptsVarArgs() && g.descriptor.AcceptsSubtypes() {
					result = append(result, g)
				}
			}
		}
		return result
	})
	return groups
}

// resolveMulti handles publications of several messages: handlers declaring
// exactly that many parameters, vararg handlers of the common type when all
// messages share one, and vararg handlers every message converges on.
func (r *Registry) resolveMulti(c *caches, types []reflect.Type) []*Group {
	var result []*Group
	if len(types) < len(r.multi) {
		result = appendUnique(result, r.multiGroups(c, types))
	}
	if first := types[0]; first.Kind() != reflect.Slice && allSame(types) {
		result = appendUnique(result, r.varArgGroups(c, first))
	}
	result = appendUnique(result, r.commonVarArgSuperGroups(c, types))
	return slices.Clip(result)
}

func (r *Registry) multiGroups(c *caches, types []reflect.Type) []*Group {
	return c.multi.getOrCompute(types, func() []*Group {
		var result []*Group
		for _, g := range *r.multi[len(types)].Load() {
			if accepts(g, types) {
				result = append(result, g)
			}
		}
		return result
	})
}

func accepts(g *Group, types []reflect.Type) bool {
	d := g.descriptor
	if d.AcceptsVarArgs() || d.Arity() != len(types) {
		return false
	}
	for i, t := range types {
		p := d.ParameterType(i)
		if t == p {
			continue
		}
		if !d.AcceptsSubtypes() || !t.AssignableTo(p) {
			return false
		}
	}
	return true
}

func (r *Registry) commonVarArgSuperGroups(c *caches, types []reflect.Type) []*Group {
	return c.varArgSuperMulti.getOrCompute(types, func() []*Group {
		common := r.varArgSuperGroups(c, types[0])
		for _, t := range types[1:] {
			if len(common) == 0 {
				return nil
			}
			other := r.varArgSuperGroups(c, t)
			common = slices.DeleteFunc(slices.Clone(common), func(g *Group) bool {
				return !slices.Contains(other, g)
			})
		}
		return common
	})
}

func allSame(types []reflect.Type) bool {
	for _, t := range types[1:] {
		if t != types[0] {
			return false
		}
	}
	return true
}

func appendUnique(dst, groups []*Group) []*Group {
	for _, g := range groups {
		if !slices.Contains(dst, g) {
			dst = append(dst, g)
		}
	}
	return dst
}
