package mbus

import (
	"context"
	"log/slog"

	"github.com/casualjim/mbus/pkg/slogx"
	"github.com/casualjim/mbus/publication"
)

type (
	// ErrorHandler receives the failures of individual handler invocations.
	ErrorHandler = publication.ErrorHandler
	// ErrorHandlerFunc adapts a function to an ErrorHandler.
	ErrorHandlerFunc = publication.ErrorHandlerFunc
	// PublicationError describes one failed handler invocation.
	PublicationError = publication.Error
)

// LoggingErrorHandler logs every publication error at error level. A nil
// logger selects slog.Default().
func LoggingErrorHandler(logger *slog.Logger) ErrorHandler {
	return ErrorHandlerFunc(func(err *PublicationError) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		if !l.Enabled(context.Background(), slog.LevelError) {
			return
		}
		l.LogAttrs(context.Background(), slog.LevelError, err.Message,
			slog.String("id", err.ID.String()),
			slogx.Stringer("kind", err.Kind),
			slogx.Handler(err.Handler),
			slogx.TypeOf("listener", err.Listener),
			slogx.Types("published", err.Published),
			slogx.Error(err.Cause),
		)
	})
}
