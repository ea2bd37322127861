package publication

import "slices"

// ErrorHandler receives publication errors. Implementations are called from
// publisher and worker goroutines concurrently and must be safe for that.
type ErrorHandler interface {
	HandlePublicationError(*Error)
}

// ErrorHandlerFunc adapts a function to an ErrorHandler.
type ErrorHandlerFunc func(*Error)

func (f ErrorHandlerFunc) HandlePublicationError(err *Error) {
	f(err)
}

// Discard drops every error.
var Discard ErrorHandler = ErrorHandlerFunc(func(*Error) {})

// CompositeErrorHandler forwards each error to all of its handlers in order.
type CompositeErrorHandler []ErrorHandler

// NewCompositeErrorHandler combines handlers, skipping nil entries.
func NewCompositeErrorHandler(handlers ...ErrorHandler) CompositeErrorHandler {
	return CompositeErrorHandler(slices.DeleteFunc(slices.Clone(handlers), func(h ErrorHandler) bool {
		return h == nil
	}))
}

func (c CompositeErrorHandler) HandlePublicationError(err *Error) {
	for h := range slices.Values(c) {
		h.HandlePublicationError(err)
	}
}
