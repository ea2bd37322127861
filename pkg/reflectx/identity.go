package reflectx

import "reflect"

// Identity returns the address behind a reference-like value.
//
// Only pointers qualify: they have identity independent of their contents.
// The second result is false for every other kind and for nil pointers.
func Identity(v reflect.Value) (uintptr, bool) {
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() {
		return 0, false
	}
	return v.Pointer(), true
}

