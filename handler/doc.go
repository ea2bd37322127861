// Package handler describes message handlers: which methods of a listener
// receive messages, with which flags, and how they are invoked.
//
// A handler is an exported method whose name starts with "On". It declares
// the message types it wants as parameters and returns nothing or an error:
//
//	type Audit struct{}
//
//	func (a *Audit) OnOrder(o *Order)                        {}
//	func (a *Audit) OnTransfer(from, to *Account) error      { return nil }
//	func (a *Audit) OnAnything(msgs ...any)                  {}
//
// Flags that a signature cannot express come from the optional Configurer
// interface. Custom discovery rules plug in through the Scanner interface.
package handler
