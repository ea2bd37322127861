package subscription

import (
	"reflect"
	"sync/atomic"

	"github.com/casualjim/mbus/internal/registry"
)

// typeTree maps an ordered tuple of types to a value. Lookups walk one
// TypeMap per position and do not allocate.
type typeTree[V any] struct {
	root *treeNode[V]
}

type treeNode[V any] struct {
	children registry.TypeMap[*treeNode[V]]
	value    atomic.Pointer[V]
}

func newTypeTree[V any]() *typeTree[V] {
	return &typeTree[V]{root: newTreeNode[V]()}
}

func newTreeNode[V any]() *treeNode[V] {
	return &treeNode[V]{children: registry.New[*treeNode[V]]()}
}

func (t *typeTree[V]) get(types []reflect.Type) (V, bool) {
	n := t.root
	for _, typ := range types {
		child, ok := n.children.Get(typ)
		if !ok {
			var zero V
			return zero, false
		}
		n = child
	}
	if v := n.value.Load(); v != nil {
		return *v, true
	}
	var zero V
	return zero, false
}

func (t *typeTree[V]) put(types []reflect.Type, value V) {
	n := t.root
	for _, typ := range types {
		n, _ = n.children.GetOrCompute(typ, newTreeNode[V])
	}
	n.value.Store(&value)
}

func (t *typeTree[V]) getOrCompute(types []reflect.Type, compute func() V) V {
	if v, ok := t.get(types); ok {
		return v
	}
	v := compute()
	t.put(types, v)
	return v
}
