package slogx

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/casualjim/mbus/pkg/reflectx"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
// A nil error renders as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Type creates a slog.Attr with the readable name of a Go type.
func Type(key string, t reflect.Type) slog.Attr {
	return slog.String(key, reflectx.TypeName(t))
}

// TypeOf creates a slog.Attr with the readable name of the dynamic type of value.
func TypeOf(key string, value any) slog.Attr {
	return Type(key, reflect.TypeOf(value))
}

// Types creates a slog.Attr listing the dynamic types of the given values.
//
// Published messages are logged by type rather than by content: messages are
// arbitrary user values and may be large or hold secrets.
func Types(key string, values []any) slog.Attr {
	return slog.String(key, reflectx.TypeNames(reflectx.TypesOf(values)))
}

const (
	// KeyLoggerName is the key for the logger name attribute.
	KeyLoggerName = "logger"
	// KeyHandler is the key used for a message handler's method name.
	KeyHandler = "handler"
)

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Handler creates a slog.Attr naming the handler method involved in an event.
func Handler(name string) slog.Attr {
	return slog.String(KeyHandler, name)
}
