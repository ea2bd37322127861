package handler

import (
	"fmt"
	"reflect"
	"runtime/debug"

	"github.com/casualjim/mbus/pkg/reflectx"
	"github.com/casualjim/mbus/publication"
)

// InvocationError describes why Invoke failed.
type InvocationError struct {
	Kind publication.Kind
	Err  error
}

func (e *InvocationError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking invocation.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func invocationError(kind publication.Kind, format string, args ...any) *InvocationError {
	return &InvocationError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Invoke calls the handler on listener with messages.
//
// The messages must match the declared parameters one to one, unless the
// handler accepts varargs: then they are packed into a slice of the declared
// element type. A single message that already is a fitting slice is passed on
// as the slice. Every failure is returned as an *InvocationError, panics
// included.
func (d *Descriptor) Invoke(listener reflect.Value, messages []any) error {
	if !listener.IsValid() {
		return invocationError(publication.KindAccess, "no listener to receive %s", d.name)
	}
	if !listener.Type().AssignableTo(d.owner) {
		return invocationError(publication.KindAccess, "listener %s cannot receive %s", reflectx.TypeName(listener.Type()), d.name)
	}

	args, err := d.arguments(listener, messages)
	if err != nil {
		return err
	}
	return d.call(args)
}

func (d *Descriptor) arguments(listener reflect.Value, messages []any) (args []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			args = nil
			err = &InvocationError{Kind: publication.KindOther, Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	if d.acceptsVarArgs {
		packed, err := d.pack(messages)
		if err != nil {
			return nil, err
		}
		return []reflect.Value{listener, packed}, nil
	}

	if len(messages) != len(d.params) {
		return nil, invocationError(publication.KindArgumentMismatch,
			"%s takes %d messages, got %d", d.name, len(d.params), len(messages))
	}
	args = make([]reflect.Value, 0, len(messages)+1)
	args = append(args, listener)
	for i, msg := range messages {
		v, ok := valueFor(msg, d.params[i])
		if !ok {
			return nil, invocationError(publication.KindArgumentMismatch,
				"%s parameter %d is %s, got %s", d.name, i, reflectx.TypeName(d.params[i]), reflectx.TypeName(reflect.TypeOf(msg)))
		}
		args = append(args, v)
	}
	return args, nil
}

func (d *Descriptor) pack(messages []any) (reflect.Value, error) {
	sliceType := d.params[0]
	elemType := sliceType.Elem()

	if len(messages) == 1 && messages[0] != nil {
		v := reflect.ValueOf(messages[0])
		if v.Type().AssignableTo(sliceType) {
			return v, nil
		}
		if v.Kind() == reflect.Slice && v.Type().Elem().AssignableTo(elemType) {
			packed := reflect.MakeSlice(sliceType, v.Len(), v.Len())
			for i := range v.Len() {
				packed.Index(i).Set(v.Index(i))
			}
			return packed, nil
		}
	}

	packed := reflect.MakeSlice(sliceType, len(messages), len(messages))
	for i, msg := range messages {
		v, ok := valueFor(msg, elemType)
		if !ok {
			return reflect.Value{}, invocationError(publication.KindArgumentMismatch,
				"%s packs %s, got %s at position %d", d.name, reflectx.TypeName(elemType), reflectx.TypeName(reflect.TypeOf(msg)), i)
		}
		packed.Index(i).Set(v)
	}
	return packed, nil
}

func valueFor(msg any, target reflect.Type) (reflect.Value, bool) {
	if msg == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(target), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(msg)
	if !v.Type().AssignableTo(target) {
		return reflect.Value{}, false
	}
	return v, true
}

func (d *Descriptor) call(args []reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{Kind: publication.KindHandlerThrew, Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	var out []reflect.Value
	if d.variadic {
		out = d.method.Func.CallSlice(args)
	} else {
		out = d.method.Func.Call(args)
	}

	if d.returns && !out[0].IsNil() {
		return &InvocationError{Kind: publication.KindHandlerThrew, Err: out[0].Interface().(error)}
	}
	return nil
}
