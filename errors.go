package mbus

import (
	"errors"

	"github.com/casualjim/mbus/handler"
	"github.com/casualjim/mbus/internal/subscription"
	"github.com/casualjim/mbus/internal/synchrony"
)

var (
	// ErrNoMessages is returned when Publish is called without messages.
	ErrNoMessages = errors.New("no messages to publish")
	// ErrNilMessage is returned when a published message is an untyped nil.
	// A typed nil, such as a nil *T, is published like any other value.
	ErrNilMessage = errors.New("cannot publish a nil message")
	// ErrInvalidConfig is the cause of the panic raised by New for an
	// out of range option.
	ErrInvalidConfig = synchrony.ErrInvalidConfig

	ErrShutdown        = synchrony.ErrShutdown
	ErrShutdownTimeout = synchrony.ErrShutdownTimeout
	ErrInvalidListener = subscription.ErrInvalidListener
	ErrInvalidHandler  = handler.ErrInvalidHandler
)
