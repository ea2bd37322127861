package mbus_test

import (
	"context"
	"fmt"

	"github.com/casualjim/mbus"
	"github.com/casualjim/mbus/handler"
)

type Greeting struct{ Name string }

func (g Greeting) String() string { return "greeting for " + g.Name }

type Greeter struct{ greeted int }

func (g *Greeter) OnGreeting(msg Greeting) {
	g.greeted++
	fmt.Println("hello,", msg.Name)
}

type Auditor struct{ seen int }

func (a *Auditor) OnStringer(s fmt.Stringer) {
	a.seen++
	fmt.Println("audit:", s)
}

type Batcher struct{ batches int }

func (b *Batcher) OnNames(names ...string) {
	b.batches++
	fmt.Println("batch of", len(names))
}

func (b *Batcher) HandlerConfig() map[string]handler.Config {
	return map[string]handler.Config{"OnNames": {RejectSubtypes: true}}
}

func Example() {
	bus := mbus.New()
	defer bus.Shutdown(context.Background())

	_ = bus.Subscribe(&Greeter{})
	_ = bus.Subscribe(&Auditor{})
	_ = bus.Subscribe(&Batcher{})

	_ = bus.Publish(Greeting{Name: "gopher"})
	_ = bus.Publish("a", "b", "c")

	// Output:
	// hello, gopher
	// audit: greeting for gopher
	// batch of 3
}

type Janitor struct{}

func (*Janitor) OnDeadMessage(d mbus.DeadMessage) {
	fmt.Println("nobody handled", d.Messages)
}

func Example_deadMessages() {
	bus := mbus.New()
	defer bus.Shutdown(context.Background())

	_ = bus.Subscribe(&Janitor{})
	_ = bus.Publish(42)

	// Output:
	// nobody handled [42]
}

func Example_async() {
	bus := mbus.New(mbus.WithWorkers(1))

	_ = bus.Subscribe(&Greeter{})
	for _, name := range []string{"ann", "bob"} {
		_ = bus.PublishAsync(Greeting{Name: name})
	}
	if err := bus.Shutdown(context.Background()); err != nil {
		fmt.Println(err)
	}
	fmt.Println("pending:", bus.HasPendingWork())

	// Output:
	// hello, ann
	// hello, bob
	// pending: false
}
