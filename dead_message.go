package mbus

import "reflect"

// DeadMessage wraps messages that no handler accepted. It is published in
// their place so that a listener with an OnDeadMessage(mbus.DeadMessage)
// handler can observe them. A DeadMessage that nobody handles is dropped.
type DeadMessage struct {
	Messages []any
}

var deadMessageType = reflect.TypeFor[DeadMessage]()

func isDeadMessage(messages []any) bool {
	if len(messages) != 1 {
		return false
	}
	_, ok := messages[0].(DeadMessage)
	return ok
}
