// Package synchrony implements the delivery strategies of the bus.
//
// Sync delivers on the publishing goroutine. Async hands publications to a
// bounded queue served by a fixed pool of workers.
//
// Design decisions:
//   - Resolution at enqueue time: a Publication carries its resolved groups,
//     so a listener type registered after Publish returned does not receive
//     the message. Each group's listener snapshot is taken when a worker
//     delivers.
//   - Backpressure: Publish blocks while the queue is full. Shutdown turns
//     a blocked Publish into ErrShutdown and never waits for queue space.
//   - Ordering: workers dequeue in FIFO order, but only a single worker
//     guarantees that deliveries happen in publish order. With more workers
//     publications run concurrently and interleave on shared listeners.
//   - Pending work: a publication counts as pending from Publish until its
//     delivery returned, so HasPendingWork turning false means every
//     accepted publication was delivered or abandoned.
//   - No handler timeouts: a handler that never returns holds its worker
//     forever and Shutdown reports ErrShutdownTimeout.
package synchrony
