// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"github.com/ixotoxin/fast-mpmc-queue/internal/spinlock"
)

// ebrNode is a plain Michael-Scott queue node. Unlike ColorQueue's
// ddNode it carries no per-node deleted flag: epoch membership, not
// a test-and-set race on the node itself, is what EpochQueue uses to
// decide when a retired node can be dropped.
type ebrNode[T any] struct {
	payload T
	next    atomix.Pointer[ebrNode[T]]
}

// retiredNode chains nodes unlinked from the queue during a given
// epoch generation. Its next field is set once, before the node is
// published onto a generation's chain by CAS, and never mutated
// afterward, so it needs no atomic wrapper itself.
type retiredNode[T any] struct {
	node *ebrNode[T]
	next *retiredNode[T]
}

// EpochQueue is an unbounded Michael-Scott MPMC queue reclaimed by
// epoch tracking instead of a color barrier: three generations (the
// current epoch and the two before it) are tracked in parallel, each
// with its own active-toucher count and its own retired chain. A
// node retired during generation G is only dropped once generation
// G's toucher count reaches zero and the epoch has advanced twice
// past G, guaranteeing every goroutine that might still hold a
// pointer into G has long since called Escape.
//
// This fixed three-generation scheme stands in for a per-worker
// identity-to-epoch table: rather than tracking which specific
// goroutine last touched which epoch, it tracks how many touches are
// outstanding in each of the three most recent generations, which is
// sufficient to answer the only question reclamation needs answered
// ("can every toucher that could still see this node have escaped by
// now?") without the bookkeeping of a growable worker registry. Purge
// is self-triggering every purgeTrigger dequeues rather than requiring
// a dedicated purge goroutine.
type EpochQueue[T any] struct {
	head atomix.Pointer[ebrNode[T]]
	_    padPtr
	tail atomix.Pointer[ebrNode[T]]
	_    padPtr

	epoch   atomix.Uint64
	active  [3]atomix.Int64
	retired [3]atomix.Pointer[retiredNode[T]]

	retireLock   *spinlock.Spinlock
	purgeCounter atomix.Int64

	producing atomix.Bool
	consuming atomix.Bool
}

// purgeTrigger is how many dequeues elapse between automatic inline
// Purge calls, so a consumer-only workload still reclaims retired
// generations without a dedicated purge goroutine.
const purgeTrigger = 256

// NewEpochQueue constructs an empty EpochQueue.
func NewEpochQueue[T any]() *EpochQueue[T] {
	q := &EpochQueue[T]{retireLock: spinlock.New(spinlock.Active)}
	sentinel := &ebrNode[T]{}
	q.head.StoreRelease(sentinel)
	q.tail.StoreRelease(sentinel)
	q.purgeCounter.StoreRelease(purgeTrigger)
	q.producing.StoreRelease(true)
	q.consuming.StoreRelease(true)
	return q
}

// Empty reports whether the queue currently holds no items.
func (q *EpochQueue[T]) Empty() bool {
	return q.head.LoadAcquire().next.LoadAcquire() == nil
}

// Producing reports whether the queue still accepts Enqueue calls.
func (q *EpochQueue[T]) Producing() bool { return q.producing.LoadRelaxed() }

// Consuming reports whether the queue still accepts Dequeue calls.
func (q *EpochQueue[T]) Consuming() bool { return q.consuming.LoadRelaxed() }

// Shutdown stops accepting further Enqueue calls.
func (q *EpochQueue[T]) Shutdown() { q.producing.StoreRelease(false) }

// Stop stops accepting both Enqueue and Dequeue calls.
func (q *EpochQueue[T]) Stop() {
	q.producing.StoreRelease(false)
	q.consuming.StoreRelease(false)
}

// Touch records that the caller is about to access the queue and
// returns the epoch it observed. Enqueue and Dequeue already Touch
// and Escape around their own work; an explicit Touch keeps the
// observed epoch's generation from being reclaimed until the matching
// Escape.
func (q *EpochQueue[T]) Touch() uint64 {
	e := q.epoch.LoadAcquire()
	q.active[e%3].AddAcqRel(1)
	return e
}

// Escape releases the caller's hold on the epoch returned by Touch.
func (q *EpochQueue[T]) Escape(epoch uint64) {
	q.active[epoch%3].AddAcqRel(-1)
}

func (q *EpochQueue[T]) retire(n *ebrNode[T]) {
	e := q.epoch.LoadAcquire()
	rn := &retiredNode[T]{node: n}
	bucket := &q.retired[e%3]
	sw := spin.Wait{}
	for {
		old := bucket.LoadAcquire()
		rn.next = old
		if bucket.CompareAndSwapAcqRel(old, rn) {
			return
		}
		sw.Once()
	}
}

// Purge attempts to advance the epoch and reclaim the oldest
// generation's retired chain. It only succeeds — dropping the chain
// and advancing the epoch — once that generation's toucher count has
// reached zero; otherwise it is a no-op and the caller may retry
// later. Safe to call concurrently with Enqueue/Dequeue and with
// itself.
func (q *EpochQueue[T]) Purge() {
	q.retireLock.Lock()
	defer q.retireLock.Unlock()

	e := q.epoch.LoadAcquire()
	oldest := (e + 1) % 3
	if q.active[oldest].LoadAcquire() != 0 {
		return
	}
	q.retired[oldest].StoreRelease(nil)
	q.epoch.AddAcqRel(1)
}

// Enqueue appends v. Touches the epoch for the duration of its CAS
// loop so any node it might later help retire cannot be reclaimed
// out from under it.
func (q *EpochQueue[T]) Enqueue(v T) error {
	if !q.producing.LoadRelaxed() {
		return ErrWouldBlock
	}

	e := q.Touch()
	defer q.Escape(e)

	newNode := &ebrNode[T]{payload: v}

	for q.producing.LoadRelaxed() {
		tail := q.tail.LoadAcquire()
		next := tail.next.LoadAcquire()

		if q.tail.LoadAcquire() != tail {
			continue
		}
		if next != nil {
			q.tail.CompareAndSwapAcqRel(tail, next)
			continue
		}
		if tail.next.CompareAndSwapAcqRel(next, newNode) {
			q.tail.CompareAndSwapAcqRel(tail, newNode)
			return nil
		}
	}
	return ErrWouldBlock
}

// Dequeue removes and returns the oldest item, retiring the unlinked
// sentinel rather than dropping it immediately.
func (q *EpochQueue[T]) Dequeue() (T, error) {
	var zero T
	if !q.consuming.LoadRelaxed() {
		return zero, ErrWouldBlock
	}

	e := q.Touch()
	defer q.Escape(e)

	for q.consuming.LoadRelaxed() {
		head := q.head.LoadAcquire()
		tail := q.tail.LoadAcquire()
		next := head.next.LoadAcquire()

		if q.head.LoadAcquire() != head {
			continue
		}
		if head == tail {
			if next == nil {
				return zero, ErrWouldBlock
			}
			q.tail.CompareAndSwapAcqRel(tail, next)
			continue
		}
		if q.head.CompareAndSwapAcqRel(head, next) {
			result := next.payload
			next.payload = zero
			q.retire(head)
			if q.purgeCounter.AddAcqRel(-1) <= 0 {
				q.purgeCounter.StoreRelease(purgeTrigger)
				q.Purge()
			}
			return result, nil
		}
	}
	return zero, ErrWouldBlock
}
