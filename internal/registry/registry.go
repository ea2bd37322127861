package registry

import (
	"reflect"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/mbus/pkg/reflectx"
)

// TypeMap is a concurrent map keyed by Go type.
type TypeMap[T any] interface {
	Get(t reflect.Type) (T, bool)
	Set(t reflect.Type, value T)
	GetOrCompute(t reflect.Type, value func() T) (T, bool)
	Del(t reflect.Type)
	Len() int
}

type typeMap[T any] struct {
	values *haxmap.Map[uintptr, T]
}

// New creates an empty TypeMap.
func New[T any]() TypeMap[T] {
	return &typeMap[T]{
		values: haxmap.New[uintptr, T](),
	}
}

func (r *typeMap[T]) Get(t reflect.Type) (T, bool) {
	return r.values.Get(reflectx.TypeKey(t))
}

func (r *typeMap[T]) Set(t reflect.Type, value T) {
	r.values.Set(reflectx.TypeKey(t), value)
}

func (r *typeMap[T]) GetOrCompute(t reflect.Type, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(reflectx.TypeKey(t), valueFn)
}

func (r *typeMap[T]) Del(t reflect.Type) {
	r.values.Del(reflectx.TypeKey(t))
}

func (r *typeMap[T]) Len() int {
	return int(r.values.Len())
}
