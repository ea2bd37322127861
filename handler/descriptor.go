package handler

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/casualjim/mbus/pkg/reflectx"
)

// MaxParameters is the largest number of messages a non-vararg handler can take.
const MaxParameters = 3

// ErrInvalidHandler is returned when a method cannot serve as a message handler.
var ErrInvalidHandler = errors.New("invalid message handler")

var errorType = reflect.TypeFor[error]()

// Descriptor is the immutable metadata of one handler method.
type Descriptor struct {
	owner    reflect.Type
	method   reflect.Method
	params   []reflect.Type
	variadic bool
	returns  bool

	acceptsSubtypes bool
	acceptsVarArgs  bool
	synchronized    bool
	enabled         bool

	name string
	key  string
}

// NewDescriptor validates method, declared on owner, and builds its descriptor.
//
// A handler takes one to three parameters, or exactly one slice parameter when
// it accepts varargs, and returns nothing or a single error.
func NewDescriptor(owner reflect.Type, method reflect.Method, cfg Config) (*Descriptor, error) {
	if owner == nil || !method.Func.IsValid() {
		return nil, fmt.Errorf("%w: %s has no callable implementation", ErrInvalidHandler, method.Name)
	}

	name := reflectx.MethodName(owner, method.Name)
	mt := method.Type
	params := make([]reflect.Type, 0, mt.NumIn()-1)
	for i := 1; i < mt.NumIn(); i++ {
		params = append(params, mt.In(i))
	}

	variadic := mt.IsVariadic()
	varArgs := variadic || cfg.VarArgs
	switch {
	case len(params) == 0:
		return nil, fmt.Errorf("%w: %s takes no message", ErrInvalidHandler, name)
	case varArgs && len(params) != 1:
		return nil, fmt.Errorf("%w: %s accepts varargs but declares %d parameters", ErrInvalidHandler, name, len(params))
	case varArgs && params[0].Kind() != reflect.Slice:
		return nil, fmt.Errorf("%w: %s accepts varargs but its parameter is %s", ErrInvalidHandler, name, reflectx.TypeName(params[0]))
	case len(params) > MaxParameters:
		return nil, fmt.Errorf("%w: %s declares %d parameters, at most %d are supported", ErrInvalidHandler, name, len(params), MaxParameters)
	}

	if mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
		return nil, fmt.Errorf("%w: %s must return nothing or an error", ErrInvalidHandler, name)
	}

	d := &Descriptor{
		owner:           owner,
		method:          method,
		params:          params,
		variadic:        variadic,
		returns:         mt.NumOut() == 1,
		acceptsSubtypes: !cfg.RejectSubtypes,
		acceptsVarArgs:  varArgs,
		synchronized:    cfg.Synchronized,
		enabled:         !cfg.Disabled,
		name:            name,
	}
	d.key = d.buildKey()
	return d, nil
}

func (d *Descriptor) buildKey() string {
	var b strings.Builder
	b.WriteString(d.name)
	b.WriteString(reflectx.TypeNames(d.params))
	b.WriteString("|subtypes=")
	b.WriteString(strconv.FormatBool(d.acceptsSubtypes))
	b.WriteString("|varargs=")
	b.WriteString(strconv.FormatBool(d.acceptsVarArgs))
	b.WriteString("|sync=")
	b.WriteString(strconv.FormatBool(d.synchronized))
	b.WriteString("|enabled=")
	b.WriteString(strconv.FormatBool(d.enabled))
	// type names are not unique across packages with the same base name
	b.WriteString("|owner=")
	b.WriteString(strconv.FormatUint(uint64(reflectx.TypeKey(d.owner)), 16))
	return b.String()
}

// ParameterTypes returns a copy of the declared parameter types.
func (d *Descriptor) ParameterTypes() []reflect.Type { return slices.Clone(d.params) }

// ParameterType returns the declared type of parameter i.
func (d *Descriptor) ParameterType(i int) reflect.Type { return d.params[i] }

// Arity is the number of declared parameters. Vararg handlers have an arity of one.
func (d *Descriptor) Arity() int { return len(d.params) }

func (d *Descriptor) AcceptsSubtypes() bool { return d.acceptsSubtypes }
func (d *Descriptor) AcceptsVarArgs() bool  { return d.acceptsVarArgs }
func (d *Descriptor) Synchronized() bool    { return d.synchronized }
func (d *Descriptor) Enabled() bool         { return d.enabled }

// Owner is the listener type the method was found on.
func (d *Descriptor) Owner() reflect.Type { return d.owner }

// Name identifies the handler, e.g. "(*app.Audit).OnEvent".
func (d *Descriptor) Name() string { return d.name }

// Key is the structural identity of the descriptor: two descriptors with the
// same key describe the same method with the same flags.
func (d *Descriptor) Key() string { return d.key }

func (d *Descriptor) String() string { return d.name + reflectx.TypeNames(d.params) }
