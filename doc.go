/*
Package mbus is an in-process publish/subscribe message bus.

Listeners are plain structs. Their exported methods named On<Something> that
take one to three parameters, or a single variadic parameter, and return
nothing or an error are message handlers. Publishing a value delivers it to
every handler whose parameter type matches.

# Basic Usage

	type OrderListener struct{ orders int }

	func (l *OrderListener) OnOrder(o Order) error {
		l.orders++
		return nil
	}

	bus := mbus.New()
	defer bus.Shutdown(context.Background())

	if err := bus.Subscribe(&OrderListener{}); err != nil {
		// the listener is not a pointer or a handler has a bad signature
	}
	_ = bus.Publish(Order{ID: 42})       // delivered before Publish returns
	_ = bus.PublishAsync(Order{ID: 43})  // delivered by a worker

# Matching

A message of type C reaches, in this order:

  - handlers declared on C
  - handlers declared on an interface that C implements, including any,
    unless the handler rejects subtypes
  - variadic handlers declared on ...C
  - variadic handlers declared on an interface that C implements

Publishing several messages at once reaches handlers with that many
parameters, each assignable from the message at the same position, and
variadic handlers that accept every message.

Messages nobody handles are republished wrapped in a DeadMessage.

# Handler configuration

A listener may implement handler.Configurer to reject subtypes, serialize
invocations on the same instance, disable a handler or declare a slice
parameter as variadic:

	func (l *OrderListener) HandlerConfig() map[string]handler.Config {
		return map[string]handler.Config{
			"OnOrder": {Synchronized: true},
		}
	}

# Failures

A handler that returns an error or panics does not affect other handlers.
Its failure is passed to the bus's error handlers as a *PublicationError.
The default error handler logs through log/slog.

# Shutdown

Shutdown stops both publish paths and waits for queued asynchronous
publications, bounded by the context and WithShutdownTimeout.
*/
package mbus
