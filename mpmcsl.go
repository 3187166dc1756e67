// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"

	"github.com/ixotoxin/fast-mpmc-queue/internal/spinlock"
)

// spinlockQueueNode is the same sentinel-headed list node shape as
// MPSCQueue's, reused here because the only difference between the
// two queues is that dequeue also needs mutual exclusion.
type spinlockQueueNode[T any] struct {
	payload T
	next    atomix.Pointer[spinlockQueueNode[T]]
}

// SpinlockMPMCQueue is an unbounded multi-producer multi-consumer
// queue built as MPSCQueue's linked list with both ends guarded by a
// single active spinlock. It gives up the lock-free variants' tail
// latency for simplicity: every enqueue and dequeue serializes
// through the same critical section.
type SpinlockMPMCQueue[T any] struct {
	head atomix.Pointer[spinlockQueueNode[T]]
	_    padPtr
	tail atomix.Pointer[spinlockQueueNode[T]]
	_    padPtr

	lock      *spinlock.Spinlock
	producing atomix.Bool
	consuming atomix.Bool
}

// NewSpinlockMPMCQueue constructs an empty SpinlockMPMCQueue.
func NewSpinlockMPMCQueue[T any]() *SpinlockMPMCQueue[T] {
	q := &SpinlockMPMCQueue[T]{lock: spinlock.New(spinlock.Active)}
	sentinel := &spinlockQueueNode[T]{}
	q.head.StoreRelease(sentinel)
	q.tail.StoreRelease(sentinel)
	q.producing.StoreRelease(true)
	q.consuming.StoreRelease(true)
	return q
}

// Empty reports whether the queue currently holds no items.
func (q *SpinlockMPMCQueue[T]) Empty() bool {
	return q.head.LoadAcquire().next.LoadAcquire() == nil
}

// Producing reports whether the queue still accepts Enqueue calls.
func (q *SpinlockMPMCQueue[T]) Producing() bool { return q.producing.LoadRelaxed() }

// Consuming reports whether the queue still accepts Dequeue calls.
func (q *SpinlockMPMCQueue[T]) Consuming() bool { return q.consuming.LoadRelaxed() }

// Shutdown stops accepting further Enqueue calls.
func (q *SpinlockMPMCQueue[T]) Shutdown() { q.producing.StoreRelease(false) }

// Stop stops accepting both Enqueue and Dequeue calls.
func (q *SpinlockMPMCQueue[T]) Stop() {
	q.producing.StoreRelease(false)
	q.consuming.StoreRelease(false)
}

// Enqueue appends v, serialized behind the queue's spinlock. Returns
// ErrWouldBlock once the queue has been shut down.
func (q *SpinlockMPMCQueue[T]) Enqueue(v T) error {
	if !q.producing.LoadRelaxed() {
		return ErrWouldBlock
	}

	q.lock.Lock()
	defer q.lock.Unlock()

	n := &spinlockQueueNode[T]{payload: v}
	prevTail := q.tail.LoadAcquire()
	q.tail.StoreRelease(n)
	prevTail.next.StoreRelease(n)
	return nil
}

// Dequeue removes and returns the oldest item, serialized behind the
// queue's spinlock. Returns ErrWouldBlock if the queue is empty or
// has been stopped.
func (q *SpinlockMPMCQueue[T]) Dequeue() (T, error) {
	var zero T
	if !q.consuming.LoadRelaxed() {
		return zero, ErrWouldBlock
	}

	q.lock.Lock()
	defer q.lock.Unlock()

	next := q.head.LoadAcquire().next.LoadAcquire()
	if next == nil {
		return zero, ErrWouldBlock
	}
	q.head.StoreRelease(next)
	v := next.payload
	next.payload = zero
	return v, nil
}
