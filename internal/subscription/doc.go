// Package subscription holds the listeners registered with a bus and resolves
// published message types to the handler groups that accept them.
//
// Design decisions:
//   - One group per handler descriptor: every listener instance sharing a
//     handler method sits in the same Group
//   - Lock-free dispatch: a group's listeners are an immutable snapshot that
//     writers replace, so iteration never blocks and never sees a torn set
//   - Identity semantics: listeners are pointers, compared by address
//   - Structural changes only: scanning a listener type that introduces a new
//     descriptor is the one operation that takes the registry lock and it
//     swaps in a fresh generation of resolution caches
//   - Error isolation: a failing handler is reported to the error handler and
//     delivery continues with the next listener
//
// Resolution of a single message of type C returns, in order and without
// duplicates:
//
//  1. the groups declared on C
//  2. the subtype accepting groups declared on a supertype of C
//  3. the vararg groups declared on []C, unless C is a slice
//  4. the subtype accepting vararg groups declared on a supertype of []C,
//     unless C is a slice
//
// Several messages resolve to the groups declaring exactly that many
// assignable parameters (two or three), the vararg groups of []C when every
// message has type C, and the vararg groups that step 4 yields for every
// message.
//
// Groups are never removed. Once every listener of a group unsubscribed, the
// group stays registered and empty.
package subscription
