// Package publication defines the failure records produced while delivering
// messages and the sink interface that receives them.
//
// A failing handler never aborts a publish. Each failure is caught at the
// granularity of one listener and reported as an *Error with the handler name,
// the listener instance, the published messages and the underlying cause:
//
//	bus := mbus.New(mbus.WithErrorHandlers(publication.ErrorHandlerFunc(func(err *publication.Error) {
//	    slog.Error("delivery failed", "handler", err.Handler, "kind", err.Kind)
//	})))
//
// The four kinds mirror the ways an invocation can go wrong: the handler is not
// accessible (KindAccess), the arguments do not fit (KindArgumentMismatch), the
// handler itself panicked or returned an error (KindHandlerThrew), or something
// else failed (KindOther).
package publication
