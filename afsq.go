// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import "code.hybscloud.com/atomix"

// ringSlot is one cell of a RingQueue's fixed array.
type ringSlot[T any] struct {
	state   atomix.Uint64
	payload T
	_       pad
}

// RingQueue is a fixed-size, allocation-free multi-producer
// multi-consumer ring. Unlike SlotQueue it never grows: capacity is
// fixed at construction and producers/consumers walk the array by a
// fetch-add cursor folded back into range, rather than by following
// block-to-block links.
type RingQueue[T any] struct {
	slots []ringSlot[T]

	producerCursor atomix.Uint64
	_              padShort
	consumerCursor atomix.Uint64
	_              padShort

	free      atomix.Int64
	producing atomix.Bool
	consuming atomix.Bool

	mode     CompletionMode
	attempts int
}

// NewRingQueue constructs a RingQueue with size slots. Panics if size
// is smaller than 4, mirroring the original's minimum block size.
// Only WithManualCompletion and WithAttempts apply; block size,
// capacity limit and growth policy options are ignored since a
// RingQueue never grows.
func NewRingQueue[T any](size int, opts ...Option) *RingQueue[T] {
	if size < 4 {
		panic("queue: ring size must be at least 4")
	}
	cfg := buildConfig(opts)
	q := &RingQueue[T]{
		slots:    make([]ringSlot[T], size),
		mode:     cfg.mode,
		attempts: cfg.attempts,
	}
	q.free.StoreRelease(int64(size))
	q.producing.StoreRelease(true)
	q.consuming.StoreRelease(true)
	return q
}

// Capacity reports the ring's fixed capacity.
func (q *RingQueue[T]) Capacity() int32 { return int32(len(q.slots)) }

// Cap is an alias for Capacity, for callers used to the int-returning
// convention of the other variants.
func (q *RingQueue[T]) Cap() int { return len(q.slots) }

// FreeSlots reports the current number of unoccupied slots.
func (q *RingQueue[T]) FreeSlots() int32 { return int32(q.free.LoadRelaxed()) }

// Empty reports whether the queue currently holds no items.
func (q *RingQueue[T]) Empty() bool { return q.free.LoadAcquire() == int64(len(q.slots)) }

// Producing reports whether the queue still accepts producer acquires.
func (q *RingQueue[T]) Producing() bool { return q.producing.LoadRelaxed() }

// Consuming reports whether the queue still accepts consumer acquires.
func (q *RingQueue[T]) Consuming() bool { return q.consuming.LoadRelaxed() }

// Shutdown stops accepting producer acquires.
func (q *RingQueue[T]) Shutdown() { q.producing.StoreRelease(false) }

// Stop stops accepting both producer and consumer acquires.
func (q *RingQueue[T]) Stop() {
	q.producing.StoreRelease(false)
	q.consuming.StoreRelease(false)
}

// iterateCursor advances cursor by one slot index, folding back into
// [0, len(q.slots)) with a single best-effort CAS rather than a
// modulo on every call.
func (q *RingQueue[T]) iterateCursor(cursor *atomix.Uint64) int {
	n := uint64(len(q.slots))
	current := cursor.AddAcqRel(1) - 1
	next := current + 1
	if next >= n {
		cursor.CompareAndSwapAcqRel(next, next%n)
	}
	if current >= n {
		current %= n
	}
	return int(current)
}

// RingProducerAccessor is a held producer slot in a RingQueue.
type RingProducerAccessor[T any] struct {
	q    *RingQueue[T]
	slot *ringSlot[T]
	c    completion
}

func (a *RingProducerAccessor[T]) Valid() bool { return a.slot != nil }
func (a *RingProducerAccessor[T]) Value() *T   { return &a.slot.payload }
func (a *RingProducerAccessor[T]) Complete()   { a.c.markDone() }

func (a *RingProducerAccessor[T]) Release() {
	if a.slot == nil {
		return
	}
	if a.c.autoComplete() || a.c.done {
		a.slot.state.StoreRelease(uint64(slotReady))
	} else {
		a.q.free.AddAcqRel(1)
		a.slot.state.StoreRelease(uint64(slotFree))
	}
	a.slot = nil
}

// ProducerSlot acquires a free slot for writing.
func (q *RingQueue[T]) ProducerSlot(attempts ...int) (*RingProducerAccessor[T], error) {
	n := q.attempts
	if len(attempts) > 0 && attempts[0] > 0 {
		n = attempts[0]
	}

	if q.free.LoadAcquire() == 0 {
		return &RingProducerAccessor[T]{q: q, c: completion{mode: q.mode}}, ErrWouldBlock
	}

	remaining := n - 1
	current := q.iterateCursor(&q.producerCursor)
	sentinel := current

	for q.producing.LoadRelaxed() {
		if q.slots[current].state.CompareAndSwapAcqRel(uint64(slotFree), uint64(slotProdLocked)) {
			q.free.AddAcqRel(-1)
			return &RingProducerAccessor[T]{q: q, slot: &q.slots[current], c: completion{mode: q.mode}}, nil
		}
		current = q.iterateCursor(&q.producerCursor)

		if current == sentinel {
			if remaining < 1 {
				break
			}
			remaining--
		}
	}
	return &RingProducerAccessor[T]{q: q, c: completion{mode: q.mode}}, ErrWouldBlock
}

// RingConsumerAccessor is a held consumer slot in a RingQueue.
type RingConsumerAccessor[T any] struct {
	q    *RingQueue[T]
	slot *ringSlot[T]
	c    completion
}

func (a *RingConsumerAccessor[T]) Valid() bool { return a.slot != nil }
func (a *RingConsumerAccessor[T]) Value() *T   { return &a.slot.payload }
func (a *RingConsumerAccessor[T]) Complete()   { a.c.markDone() }

func (a *RingConsumerAccessor[T]) Release() {
	if a.slot == nil {
		return
	}
	if a.c.autoComplete() || a.c.done {
		a.q.free.AddAcqRel(1)
		a.slot.state.StoreRelease(uint64(slotFree))
	} else {
		a.slot.state.StoreRelease(uint64(slotReady))
	}
	a.slot = nil
}

// ConsumerSlot acquires a ready slot for reading.
func (q *RingQueue[T]) ConsumerSlot(attempts ...int) (*RingConsumerAccessor[T], error) {
	n := q.attempts
	if len(attempts) > 0 && attempts[0] > 0 {
		n = attempts[0]
	}

	remaining := n - 1
	current := q.iterateCursor(&q.consumerCursor)
	sentinel := current

	for q.consuming.LoadRelaxed() && q.free.LoadAcquire() != int64(len(q.slots)) {
		if q.slots[current].state.CompareAndSwapAcqRel(uint64(slotReady), uint64(slotConsLocked)) {
			return &RingConsumerAccessor[T]{q: q, slot: &q.slots[current], c: completion{mode: q.mode}}, nil
		}
		current = q.iterateCursor(&q.consumerCursor)

		if current == sentinel {
			if remaining < 1 {
				break
			}
			remaining--
		}
	}
	return &RingConsumerAccessor[T]{q: q, c: completion{mode: q.mode}}, ErrWouldBlock
}

// Enqueue is the single-step convenience form of ProducerSlot.
func (q *RingQueue[T]) Enqueue(v T) error {
	acc, err := q.ProducerSlot()
	if err != nil {
		return err
	}
	*acc.Value() = v
	acc.Complete()
	acc.Release()
	return nil
}

// Dequeue is the single-step convenience form of ConsumerSlot.
func (q *RingQueue[T]) Dequeue() (T, error) {
	acc, err := q.ConsumerSlot()
	if err != nil {
		var zero T
		return zero, err
	}
	v := *acc.Value()
	acc.Complete()
	acc.Release()
	return v, nil
}
