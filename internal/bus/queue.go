// Package bus provides the bounded message queues connecting the dashboard's
// goroutines.
package bus

import "sync/atomic"

// DefaultSize is the buffer size of the dispatcher and orchestrator queues.
const DefaultSize = 32

// Queue is a bounded multi-producer, single-consumer channel. Sends never
// block: when the buffer is full the message is dropped and counted.
type Queue[T any] struct {
	ch      chan T
	dropped atomic.Uint64
}

// New creates a queue buffering up to size messages.
func New[T any](size int) *Queue[T] {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue[T]{ch: make(chan T, size)}
}

// Send enqueues v and reports whether it was accepted.
func (q *Queue[T]) Send(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		// Slow consumer, drop message.
		q.dropped.Add(1)
		return false
	}
}

// C returns the receive side of the queue.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Dropped returns the number of messages rejected because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
