package handler

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/casualjim/mbus/publication"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct{ id int }

func (o *order) String() string { return fmt.Sprintf("order-%d", o.id) }

type recorder struct {
	got []any
}

func (r *recorder) OnOrder(o *order) { r.got = append(r.got, o) }
func (r *recorder) OnStringer(s fmt.Stringer) { r.got = append(r.got, s.String()) }
func (r *recorder) OnPair(a string, b int) { r.got = append(r.got, a, b) }
func (r *recorder) OnTriple(a, b, c string) { r.got = append(r.got, a+b+c) }
func (r *recorder) OnMany(msgs ...fmt.Stringer) { r.got = append(r.got, len(msgs)) }
func (r *recorder) OnBatch(batch []string) { r.got = append(r.got, strings.Join(batch, ",")) }
func (r *recorder) OnFail(string) error { return errors.New("rejected") }
func (r *recorder) OnPanic(int) { panic("kaboom") }
func (r *recorder) OnPanicErr(float64) { panic(errors.New("wrapped")) }
func (r *recorder) Once(string) {}
func (r *recorder) Ignored(string) {}
func (r *recorder) HandlerConfig() map[string]Config { return recorderConfig }
func (r *recorder) On_Internal(bool) (int, error) { return 0, nil }
func (r *recorder) OnNothing() {}
func (r *recorder) OnFour(a, b, c, d string) {}
func (r *recorder) OnVarPair(prefix string, rest ...int) {}

var recorderConfig = map[string]Config{
	"OnBatch":  {VarArgs: true},
	"OnOrder":  {RejectSubtypes: true, Synchronized: true},
	"OnTriple": {Disabled: true},
}

func method(t *testing.T, owner reflect.Type, name string) reflect.Method {
	t.Helper()
	m, ok := owner.MethodByName(name)
	require.True(t, ok, name)
	return m
}

var recorderT = reflect.TypeFor[*recorder]()

func TestNewDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		cfg     Config
		params  []reflect.Type
		varArgs bool
		wantErr bool
	}{
		{name: "single", method: "OnOrder", params: []reflect.Type{reflect.TypeFor[*order]()}},
		{name: "interface", method: "OnStringer", params: []reflect.Type{reflect.TypeFor[fmt.Stringer]()}},
		{name: "pair", method: "OnPair", params: []reflect.Type{reflect.TypeFor[string](), reflect.TypeFor[int]()}},
		{name: "variadic", method: "OnMany", params: []reflect.Type{reflect.TypeFor[[]fmt.Stringer]()}, varArgs: true},
		{name: "slice with varargs flag", method: "OnBatch", cfg: Config{VarArgs: true}, params: []reflect.Type{reflect.TypeFor[[]string]()}, varArgs: true},
		{name: "slice without flag", method: "OnBatch", params: []reflect.Type{reflect.TypeFor[[]string]()}},
		{name: "returns error", method: "OnFail", params: []reflect.Type{reflect.TypeFor[string]()}},
		{name: "varargs flag on scalar", method: "OnFail", cfg: Config{VarArgs: true}, wantErr: true},
		{name: "no parameters", method: "OnNothing", wantErr: true},
		{name: "too many parameters", method: "OnFour", wantErr: true},
		{name: "variadic with leading parameter", method: "OnVarPair", wantErr: true},
		{name: "two results", method: "On_Internal", wantErr: true},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDescriptor(recorderT, method(t, recorderT, tt.method), tt.cfg)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidHandler)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.params, d.ParameterTypes())
			assert.Equal(t, len(tt.params), d.Arity())
			assert.Equal(t, tt.varArgs, d.AcceptsVarArgs())
			assert.Equal(t, recorderT, d.Owner())
			assert.Equal(t, "(*handler.recorder)."+tt.method, d.Name())
		})
	}
}

func TestDescriptorFlagsAndKey(t *testing.T) {
	m := method(t, recorderT, "OnOrder")

	plain, err := NewDescriptor(recorderT, m, Config{})
	require.NoError(t, err)
	assert.True(t, plain.AcceptsSubtypes())
	assert.False(t, plain.Synchronized())
	assert.True(t, plain.Enabled())

	same, err := NewDescriptor(recorderT, m, Config{})
	require.NoError(t, err)
	assert.Equal(t, plain.Key(), same.Key())

	flagged, err := NewDescriptor(recorderT, m, Config{RejectSubtypes: true, Synchronized: true, Disabled: true})
	require.NoError(t, err)
	assert.False(t, flagged.AcceptsSubtypes())
	assert.True(t, flagged.Synchronized())
	assert.False(t, flagged.Enabled())
	assert.NotEqual(t, plain.Key(), flagged.Key())

	other, err := NewDescriptor(recorderT, method(t, recorderT, "OnStringer"), Config{})
	require.NoError(t, err)
	assert.NotEqual(t, plain.Key(), other.Key())

	params := plain.ParameterTypes()
	params[0] = nil
	assert.NotNil(t, plain.ParameterType(0), "parameter types are copied")
}

func TestNewDescriptorWithoutImplementation(t *testing.T) {
	_, err := NewDescriptor(nil, reflect.Method{Name: "OnX"}, Config{})
	require.ErrorIs(t, err, ErrInvalidHandler)
}

func TestMethodScanner(t *testing.T) {
	descriptors, err := NewScanner(Lenient(true)).Scan(recorderT, &recorder{})
	require.NoError(t, err)

	var names []string
	byName := make(map[string]*Descriptor)
	for _, d := range descriptors {
		names = append(names, d.method.Name)
		byName[d.method.Name] = d
	}
	assert.Equal(t, []string{
		"OnBatch", "OnFail", "OnMany", "OnOrder", "OnPair",
		"OnPanic", "OnPanicErr", "OnStringer", "OnTriple",
	}, names)

	assert.True(t, byName["OnBatch"].AcceptsVarArgs())
	assert.False(t, byName["OnOrder"].AcceptsSubtypes())
	assert.True(t, byName["OnOrder"].Synchronized())
	assert.False(t, byName["OnTriple"].Enabled())
	assert.True(t, byName["OnPair"].Enabled())
}

func TestMethodScannerStrict(t *testing.T) {
	_, err := NewScanner().Scan(recorderT, &recorder{})
	require.ErrorIs(t, err, ErrInvalidHandler)
}

type prefixed struct{}

func (p *prefixed) HandleOrder(*order) {}
func (p *prefixed) OnOrder(*order) {}

func TestMethodScannerPrefix(t *testing.T) {
	descriptors, err := NewScanner(WithPrefix("Handle")).Scan(reflect.TypeFor[*prefixed](), &prefixed{})
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "(*handler.prefixed).HandleOrder", descriptors[0].Name())
}

type misconfigured struct{}

func (m *misconfigured) OnOrder(*order) {}
func (m *misconfigured) HandlerConfig() map[string]Config {
	return map[string]Config{"OnMissing": {Synchronized: true}}
}

func TestMethodScannerUnknownConfig(t *testing.T) {
	_, err := NewScanner().Scan(reflect.TypeFor[*misconfigured](), &misconfigured{})
	require.ErrorIs(t, err, ErrInvalidHandler)
	assert.Contains(t, err.Error(), "OnMissing")
}

func TestScannerFunc(t *testing.T) {
	called := false
	var s Scanner = ScannerFunc(func(reflect.Type, any) ([]*Descriptor, error) {
		called = true
		return nil, nil
	})
	_, err := s.Scan(recorderT, nil)
	require.NoError(t, err)
	assert.True(t, called)
}

func mustDescriptor(t *testing.T, name string, cfg Config) *Descriptor {
	t.Helper()
	d, err := NewDescriptor(recorderT, method(t, recorderT, name), cfg)
	require.NoError(t, err)
	return d
}

func TestInvoke(t *testing.T) {
	o := &order{id: 7}

	tests := []struct {
		name     string
		method   string
		cfg      Config
		messages []any
		expected []any
	}{
		{"exact", "OnOrder", Config{}, []any{o}, []any{o}},
		{"interface parameter", "OnStringer", Config{}, []any{o}, []any{"order-7"}},
		{"pair", "OnPair", Config{}, []any{"a", 1}, []any{"a", 1}},
		{"variadic packs messages", "OnMany", Config{}, []any{o, o, o}, []any{3}},
		{"variadic single message", "OnMany", Config{}, []any{o}, []any{1}},
		{"variadic spreads fitting slice", "OnMany", Config{}, []any{[]*order{o, o}}, []any{2}},
		{"variadic passes exact slice", "OnMany", Config{}, []any{[]fmt.Stringer{o}}, []any{1}},
		{"slice handler packs", "OnBatch", Config{VarArgs: true}, []any{"x", "y"}, []any{"x,y"}},
		{"slice handler takes slice", "OnBatch", Config{VarArgs: true}, []any{[]string{"x", "y", "z"}}, []any{"x,y,z"}},
		{"nil for pointer parameter", "OnOrder", Config{}, []any{nil}, []any{(*order)(nil)}},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			d := mustDescriptor(t, tt.method, tt.cfg)
			require.NoError(t, d.Invoke(reflect.ValueOf(r), tt.messages))
			assert.Equal(t, tt.expected, r.got)
		})
	}
}

func TestInvokeFailures(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		listener reflect.Value
		messages []any
		kind     publication.Kind
		panicked bool
	}{
		{"invalid listener", "OnPair", reflect.Value{}, []any{"a", 1}, publication.KindAccess, false},
		{"foreign listener", "OnPair", reflect.ValueOf(&prefixed{}), []any{"a", 1}, publication.KindAccess, false},
		{"wrong arity", "OnPair", reflect.ValueOf(&recorder{}), []any{"a"}, publication.KindArgumentMismatch, false},
		{"wrong type", "OnPair", reflect.ValueOf(&recorder{}), []any{"a", "b"}, publication.KindArgumentMismatch, false},
		{"nil for value parameter", "OnPair", reflect.ValueOf(&recorder{}), []any{nil, 1}, publication.KindArgumentMismatch, false},
		{"vararg element mismatch", "OnMany", reflect.ValueOf(&recorder{}), []any{1}, publication.KindArgumentMismatch, false},
		{"returned error", "OnFail", reflect.ValueOf(&recorder{}), []any{"a"}, publication.KindHandlerThrew, false},
		{"panic", "OnPanic", reflect.ValueOf(&recorder{}), []any{1}, publication.KindHandlerThrew, true},
	}

	for tt := range slices.Values(tests) {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDescriptor(t, tt.method, Config{})
			err := d.Invoke(tt.listener, tt.messages)
			require.Error(t, err)

			var ie *InvocationError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.kind, ie.Kind)

			var pe *PanicError
			assert.Equal(t, tt.panicked, errors.As(err, &pe))
			if tt.panicked {
				assert.Equal(t, "kaboom", pe.Value)
				assert.NotEmpty(t, pe.Stack)
			}
		})
	}
}

func TestInvokePanicWithError(t *testing.T) {
	d := mustDescriptor(t, "OnPanicErr", Config{})
	err := d.Invoke(reflect.ValueOf(&recorder{}), []any{1.5})

	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.EqualError(t, errors.Unwrap(pe), "wrapped")
	assert.Contains(t, err.Error(), "handler_threw")
}
