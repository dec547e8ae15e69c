// Package handoff provides a bounded single-writer single-reader lock-free
// queue. It is the only channel by which heavyweight objects built on the
// control plane become visible to the render plane: the producer allocates,
// the consumer only swaps pointers and never blocks.
package handoff

import "sync/atomic"

const defaultCapacity = 32

// Queue is a single-producer single-consumer ring. Exactly one goroutine may
// push and exactly one may pop; neither operation blocks or allocates.
type Queue[T any] struct {
	buf  []T
	mask uint64
	head atomic.Uint64 // next slot to pop, moved by the consumer
	tail atomic.Uint64 // next slot to push, moved by the producer
}

// New returns a queue with at least the requested capacity, rounded up to a
// power of two. Non-positive capacity falls back to the default.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &Queue[T]{
		buf:  make([]T, size),
		mask: size - 1,
	}
}

// Push transfers ownership of v into the queue. It reports false when the
// queue is full and the item was not enqueued. Producer side only.
func (q *Queue[T]) Push(v T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() > q.mask {
		return false
	}
	q.buf[tail&q.mask] = v
	q.tail.Store(tail + 1)
	return true
}

// Pop transfers ownership of the oldest item into *out and reports whether
// an item was available. Consumer side only.
func (q *Queue[T]) Pop(out *T) bool {
	head := q.head.Load()
	if head == q.tail.Load() {
		return false
	}
	var zero T
	*out = q.buf[head&q.mask]
	q.buf[head&q.mask] = zero
	q.head.Store(head + 1)
	return true
}

// PopLatest drains the queue and keeps only the most recently pushed item in
// *out. Superseded items are dropped, which is the visible discontinuity
// policy: a burst of producer-side updates collapses to latest-wins by the
// time the consumer observes it. Reports whether *out was written.
func (q *Queue[T]) PopLatest(out *T) bool {
	popped := false
	for q.Pop(out) {
		popped = true
	}
	return popped
}

// Len returns the number of items currently queued. It is exact only for the
// producer or the consumer; concurrent use yields a point-in-time estimate.
func (q *Queue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}
