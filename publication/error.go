package publication

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies why a single handler invocation failed.
type Kind int

const (
	// KindAccess means the handler could not be invoked on the listener at all,
	// usually a misconfigured listener or handler.
	KindAccess Kind = iota
	// KindArgumentMismatch means a published message did not fit the declared
	// parameter type. Resolution is supposed to prevent this.
	KindArgumentMismatch
	// KindHandlerThrew means the listener's own code panicked or returned an error.
	KindHandlerThrew
	// KindOther covers everything else.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindArgumentMismatch:
		return "argument_mismatch"
	case KindHandlerThrew:
		return "handler_threw"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Describe returns the human readable prefix used for errors of this kind.
func (k Kind) Describe() string {
	switch k {
	case KindAccess:
		return "error during invocation of message handler: the listener or method is not accessible"
	case KindArgumentMismatch:
		return "error during invocation of message handler: wrong arguments passed to method"
	case KindHandlerThrew:
		return "error during invocation of message handler: message handler failed"
	default:
		return "error during invocation of message handler: unexpected failure"
	}
}

// Error is the structured record handed to an ErrorHandler when delivering a
// message to one listener failed. Delivery to the other listeners carries on.
type Error struct {
	ID        uuid.UUID
	Kind      Kind
	Message   string
	Cause     error
	Handler   string
	Listener  any
	Published []any
	Timestamp time.Time
}

// New creates a publication error for the given handler and listener.
func New(kind Kind, cause error, handlerName string, listener any, published []any) *Error {
	return &Error{
		ID:        uuid.Must(uuid.NewV7()),
		Kind:      kind,
		Message:   describe(kind, cause),
		Cause:     cause,
		Handler:   handlerName,
		Listener:  listener,
		Published: published,
		Timestamp: time.Now(),
	}
}

func describe(kind Kind, cause error) string {
	if cause == nil {
		return kind.Describe()
	}
	return kind.Describe() + ": " + cause.Error()
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Handler != "" {
		b.WriteString(" (handler ")
		b.WriteString(e.Handler)
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}
