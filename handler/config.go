package handler

// Config holds the per-method flags of a handler. The zero value is the
// default: subtypes accepted, unsynchronized, enabled and no vararg packing
// beyond what a variadic signature implies.
type Config struct {
	// RejectSubtypes limits delivery to messages whose dynamic type equals the
	// declared parameter type.
	RejectSubtypes bool
	// Synchronized serializes invocations on the listener instance.
	Synchronized bool
	// Disabled excludes the method from subscription.
	Disabled bool
	// VarArgs marks a handler with a single slice parameter as accepting
	// individually published messages packed into that slice. Variadic methods
	// accept varargs without it.
	VarArgs bool
}

// Configurer is implemented by listeners that need non-default handler flags.
// The map is keyed by method name.
//
//	func (l *AuditLog) HandlerConfig() map[string]handler.Config {
//	    return map[string]handler.Config{
//	        "OnEvent": {Synchronized: true},
//	    }
//	}
type Configurer interface {
	HandlerConfig() map[string]Config
}
