// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscNode is a sentinel-headed singly-linked list node. The head
// node always holds no payload; its successor is the next item to
// dequeue.
type mpscNode[T any] struct {
	payload T
	next    atomix.Pointer[mpscNode[T]]
}

// MPSCQueue is an unbounded multi-producer single-consumer queue.
// Enqueue is lock-free: producers race an atomic exchange on the
// tail, each linking their node behind whichever node they displaced.
// Dequeue assumes a single consumer and needs no synchronization
// beyond the head pointer itself.
type MPSCQueue[T any] struct {
	head atomix.Pointer[mpscNode[T]]
	_    padPtr
	tail atomix.Pointer[mpscNode[T]]
	_    padPtr

	producing atomix.Bool
	consuming atomix.Bool
}

// NewMPSCQueue constructs an empty MPSCQueue.
func NewMPSCQueue[T any]() *MPSCQueue[T] {
	q := &MPSCQueue[T]{}
	sentinel := &mpscNode[T]{}
	q.head.StoreRelease(sentinel)
	q.tail.StoreRelease(sentinel)
	q.producing.StoreRelease(true)
	q.consuming.StoreRelease(true)
	return q
}

// Empty reports whether the queue currently holds no items. Only
// meaningful to the single consumer goroutine; a producer racing
// concurrently can make the answer stale the instant it's returned.
func (q *MPSCQueue[T]) Empty() bool {
	return q.head.LoadAcquire().next.LoadAcquire() == nil
}

// Producing reports whether the queue still accepts Enqueue calls.
func (q *MPSCQueue[T]) Producing() bool { return q.producing.LoadRelaxed() }

// Consuming reports whether the queue still accepts Dequeue calls.
func (q *MPSCQueue[T]) Consuming() bool { return q.consuming.LoadRelaxed() }

// Shutdown stops accepting further Enqueue calls.
func (q *MPSCQueue[T]) Shutdown() { q.producing.StoreRelease(false) }

// Stop stops accepting both Enqueue and Dequeue calls.
func (q *MPSCQueue[T]) Stop() {
	q.producing.StoreRelease(false)
	q.consuming.StoreRelease(false)
}

// Enqueue appends v. Safe to call from any number of producer
// goroutines concurrently. Returns ErrWouldBlock once the queue has
// been shut down.
func (q *MPSCQueue[T]) Enqueue(v T) error {
	if !q.producing.LoadRelaxed() {
		return ErrWouldBlock
	}
	n := &mpscNode[T]{payload: v}
	prevTail := exchangeMPSCNode(&q.tail, n)
	prevTail.next.StoreRelease(n)
	return nil
}

// Dequeue removes and returns the oldest item. Must be called from a
// single consumer goroutine; concurrent calls race the same head
// pointer with no protection.
func (q *MPSCQueue[T]) Dequeue() (T, error) {
	var zero T
	if !q.consuming.LoadRelaxed() {
		return zero, ErrWouldBlock
	}
	next := q.head.LoadAcquire().next.LoadAcquire()
	if next == nil {
		return zero, ErrWouldBlock
	}
	q.head.StoreRelease(next)
	v := next.payload
	next.payload = zero
	return v, nil
}

func exchangeMPSCNode[T any](p *atomix.Pointer[mpscNode[T]], next *mpscNode[T]) *mpscNode[T] {
	sw := spin.Wait{}
	for {
		old := p.LoadAcquire()
		if p.CompareAndSwapAcqRel(old, next) {
			return old
		}
		sw.Once()
	}
}
