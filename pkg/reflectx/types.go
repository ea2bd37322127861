package reflectx

import (
	"reflect"
	"strings"
)

var anyType = reflect.TypeFor[any]()

// AnyType returns the reflect.Type of the empty interface.
func AnyType() reflect.Type {
	return anyType
}

// TypeKey returns a key that uniquely identifies t for the lifetime of the process.
//
// reflect.Type values are canonical: two equal types share the same underlying
// *rtype, so its address can stand in for the type in maps that only accept
// integer keys. Types are never unloaded, so the address stays valid.
// TypeKey returns 0 for a nil type.
func TypeKey(t reflect.Type) uintptr {
	if t == nil {
		return 0
	}
	return reflect.ValueOf(t).Pointer()
}

// TypeName returns a readable, package qualified name for t.
//
// Named types render as "pkg.Name", pointers as "*pkg.Name", and composite
// types follow reflect's String representation.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return t.String()
	}
	pkg := t.PkgPath()
	if idx := strings.LastIndex(pkg, "/"); idx >= 0 {
		pkg = pkg[idx+1:]
	}
	return pkg + "." + t.Name()
}

// MethodName renders a method on a receiver type the way the Go runtime does:
// "(*pkg.Type).Method" for pointer receivers and "pkg.Type.Method" otherwise.
func MethodName(receiver reflect.Type, method string) string {
	if receiver == nil {
		return method
	}
	if receiver.Kind() == reflect.Pointer {
		return "(" + TypeName(receiver) + ")." + method
	}
	return TypeName(receiver) + "." + method
}

// TypeNames renders a list of types, e.g. for argument mismatch diagnostics.
func TypeNames(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = TypeName(t)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// TypesOf returns the dynamic types of values. A nil value yields a nil type.
func TypesOf(values []any) []reflect.Type {
	types := make([]reflect.Type, len(values))
	for i, v := range values {
		types[i] = reflect.TypeOf(v)
	}
	return types
}
