package handler

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fogfish/opts"
)

// DefaultPrefix is the method name prefix that marks a handler.
const DefaultPrefix = "On"

// Scanner turns a listener type into its handler descriptors. It is called
// once per listener type; listener is the first instance seen for that type.
type Scanner interface {
	Scan(t reflect.Type, listener any) ([]*Descriptor, error)
}

// ScannerFunc adapts a function to a Scanner.
type ScannerFunc func(t reflect.Type, listener any) ([]*Descriptor, error)

func (f ScannerFunc) Scan(t reflect.Type, listener any) ([]*Descriptor, error) {
	return f(t, listener)
}

// MethodScanner finds handlers by method name.
type MethodScanner struct {
	prefix  string
	lenient bool
}

var (
	// WithPrefix changes the method name prefix, "On" by default.
	WithPrefix = opts.ForName[MethodScanner, string]("prefix")
	// Lenient skips prefixed methods with an unusable signature instead of
	// failing the scan.
	Lenient = opts.ForName[MethodScanner, bool]("lenient")
)

// NewScanner creates a scanner that treats every exported method named
// <prefix><Upper...> as a handler. It panics when an option fails to apply.
func NewScanner(options ...opts.Option[MethodScanner]) *MethodScanner {
	s := &MethodScanner{prefix: DefaultPrefix}
	if err := opts.Apply(s, options); err != nil {
		panic(err)
	}
	return s
}

// Scan returns the descriptors of t's handler methods in method name order.
// Flags come from the listener's HandlerConfig when it implements Configurer.
func (s *MethodScanner) Scan(t reflect.Type, listener any) ([]*Descriptor, error) {
	var configs map[string]Config
	if c, ok := listener.(Configurer); ok {
		configs = c.HandlerConfig()
	}

	var descriptors []*Descriptor
	for i := range t.NumMethod() {
		m := t.Method(i)
		if !s.matches(m.Name) {
			continue
		}
		d, err := NewDescriptor(t, m, configs[m.Name])
		if err != nil {
			if s.lenient {
				continue
			}
			return nil, err
		}
		descriptors = append(descriptors, d)
	}

	for name := range configs {
		if m, ok := t.MethodByName(name); !ok || !s.matches(m.Name) {
			return nil, fmt.Errorf("%w: configuration for unknown handler %s", ErrInvalidHandler, name)
		}
	}
	return descriptors, nil
}

func (s *MethodScanner) matches(name string) bool {
	rest, ok := strings.CutPrefix(name, s.prefix)
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '_'
}
