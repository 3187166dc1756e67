// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"github.com/ixotoxin/fast-mpmc-queue/internal/colorbarrier"
)

// ddNode is a Michael-Scott queue node augmented with a retirement
// link and a test-and-set deleted flag, used to arbitrate which of
// two racing dequeuers gets to retire a given node.
type ddNode[T any] struct {
	payload     T
	next        atomix.Pointer[ddNode[T]]
	nextDeleted atomix.Pointer[ddNode[T]]
	deleted     atomix.Bool
}

// testAndSetDeleted atomically sets n's deleted flag and reports the
// value it held beforehand, mirroring std::atomic_flag::test_and_set.
func (n *ddNode[T]) testAndSetDeleted() bool {
	for {
		old := n.deleted.LoadAcquire()
		if old {
			return true
		}
		if n.deleted.CompareAndSwapAcqRel(false, true) {
			return false
		}
	}
}

func exchangeDDNode[T any](p *atomix.Pointer[ddNode[T]], next *ddNode[T]) *ddNode[T] {
	sw := spin.Wait{}
	for {
		old := p.LoadAcquire()
		if p.CompareAndSwapAcqRel(old, next) {
			return old
		}
		sw.Once()
	}
}

// ColorQueue is an unbounded Michael-Scott MPMC queue whose retired
// nodes are reclaimed through deferred deletion rather than
// immediately: a dequeuer unlinks a node and pushes it onto a
// retired chain instead of freeing it outright, and Purge later
// drops the whole chain at once, but only while holding the red
// color of the queue's barrier, i.e. only once it has observed that
// no concurrent Enqueue/Dequeue (green) is in flight. That is what
// makes it safe even though a racing dequeuer may still be mid-read
// of a just-unlinked node's payload when it gets retired.
type ColorQueue[T any] struct {
	head    atomix.Pointer[ddNode[T]]
	_       padPtr
	tail    atomix.Pointer[ddNode[T]]
	_       padPtr
	deleted atomix.Pointer[ddNode[T]]

	barrier colorbarrier.Barrier

	producing atomix.Bool
	consuming atomix.Bool
}

// NewColorQueue constructs an empty ColorQueue.
func NewColorQueue[T any]() *ColorQueue[T] {
	q := &ColorQueue[T]{}
	sentinel := &ddNode[T]{}
	q.head.StoreRelease(sentinel)
	q.tail.StoreRelease(sentinel)
	q.producing.StoreRelease(true)
	q.consuming.StoreRelease(true)
	return q
}

// Empty reports whether the queue currently holds no items.
func (q *ColorQueue[T]) Empty() bool {
	return q.head.LoadAcquire().next.LoadAcquire() == nil
}

// Producing reports whether the queue still accepts Enqueue calls.
func (q *ColorQueue[T]) Producing() bool { return q.producing.LoadRelaxed() }

// Consuming reports whether the queue still accepts Dequeue calls.
func (q *ColorQueue[T]) Consuming() bool { return q.consuming.LoadRelaxed() }

// Shutdown stops accepting further Enqueue calls.
func (q *ColorQueue[T]) Shutdown() { q.producing.StoreRelease(false) }

// Stop stops accepting both Enqueue and Dequeue calls.
func (q *ColorQueue[T]) Stop() {
	q.producing.StoreRelease(false)
	q.consuming.StoreRelease(false)
}

// Enqueue appends v. Holds the barrier's green color for the
// duration of the CAS loop, so it can run concurrently with any
// number of other Enqueue/Dequeue callers but never with Purge.
func (q *ColorQueue[T]) Enqueue(v T) error {
	if !q.producing.LoadRelaxed() {
		return ErrWouldBlock
	}

	q.barrier.LockGreen()
	defer q.barrier.UnlockGreen()

	newNode := &ddNode[T]{payload: v}

	for q.producing.LoadRelaxed() {
		tail := q.tail.LoadAcquire()
		next := tail.next.LoadAcquire()

		if q.tail.LoadAcquire() != tail {
			continue
		}
		if next != nil {
			q.tail.StoreRelease(next)
			continue
		}
		if tail.next.CompareAndSwapAcqRel(next, newNode) {
			return nil
		}
	}
	return ErrWouldBlock
}

// Dequeue removes and returns the oldest item. Like Enqueue, it
// holds the green color for its duration.
func (q *ColorQueue[T]) Dequeue() (T, error) {
	var zero T

	q.barrier.LockGreen()
	defer q.barrier.UnlockGreen()

	for q.consuming.LoadRelaxed() {
		head := q.head.LoadAcquire()
		first := head.next.LoadAcquire()

		if q.head.LoadAcquire() != head {
			continue
		}
		if first == nil {
			return zero, ErrWouldBlock
		}
		if q.tail.LoadAcquire() == head {
			q.tail.CompareAndSwapAcqRel(head, first)
			continue
		}
		if first.testAndSetDeleted() {
			continue
		}
		if q.head.CompareAndSwapAcqRel(head, first) {
			result := first.payload
			first.payload = zero
			old := exchangeDDNode(&q.deleted, head)
			head.nextDeleted.StoreRelease(old)
			return result, nil
		}
	}
	return zero, ErrWouldBlock
}

// Purge drops the queue's retired-node chain, making every node on
// it unreachable. Holds the barrier's red color, which blocks until
// every in-flight Enqueue/Dequeue has finished, so no goroutine can
// still be mid-read of a node Purge is about to drop. Go's garbage
// collector, not an explicit free, does the actual reclamation once
// nothing references the chain anymore.
func (q *ColorQueue[T]) Purge() {
	q.barrier.LockRed()
	defer q.barrier.UnlockRed()

	q.deleted.StoreRelease(nil)
}
