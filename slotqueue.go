// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"github.com/ixotoxin/fast-mpmc-queue/internal/spinlock"
)

// slotQueueSlot is one cell of a SlotQueue's ring. Payload access is
// guarded entirely by the state machine: a goroutine may touch
// payload only while it holds the slot in prodLocked or consLocked.
type slotQueueSlot[T any] struct {
	next    atomix.Pointer[slotQueueSlot[T]]
	state   atomix.Uint64
	payload T
	_       pad
}

// slotQueueBlock is a fixed run of slots linked into a single-block
// ring. Growing a SlotQueue splices a new block into the existing
// ring rather than replacing it, so producer/consumer cursors already
// in flight never observe a torn ring.
type slotQueueBlock[T any] struct {
	slots []slotQueueSlot[T]
	next  *slotQueueBlock[T]
}

func newSlotQueueBlock[T any](size int) *slotQueueBlock[T] {
	b := &slotQueueBlock[T]{slots: make([]slotQueueSlot[T], size)}
	for i := range b.slots[:len(b.slots)-1] {
		b.slots[i].next.StoreRelease(&b.slots[i+1])
	}
	b.slots[len(b.slots)-1].next.StoreRelease(&b.slots[0])
	return b
}

// newSlotQueueBlockAfter allocates a block and splices it into the
// ring immediately after lastBlock's own slots, preserving whatever
// lastBlock's last slot used to point to.
func newSlotQueueBlockAfter[T any](size int, lastBlock *slotQueueBlock[T]) *slotQueueBlock[T] {
	b := &slotQueueBlock[T]{slots: make([]slotQueueSlot[T], size)}
	for i := range b.slots[:len(b.slots)-1] {
		b.slots[i].next.StoreRelease(&b.slots[i+1])
	}
	tail := lastBlock.lastSlot()
	b.slots[len(b.slots)-1].next.StoreRelease(tail.next.LoadAcquire())
	tail.next.StoreRelease(b.firstSlot())
	lastBlock.next = b
	return b
}

func (b *slotQueueBlock[T]) firstSlot() *slotQueueSlot[T] { return &b.slots[0] }
func (b *slotQueueBlock[T]) lastSlot() *slotQueueSlot[T]  { return &b.slots[len(b.slots)-1] }

// SlotQueue is a bounded, optionally growable multi-producer
// multi-consumer ring of blocks. Producers and consumers race each
// other around independent cursors with a CAS-guarded slot state
// machine (free -> prodLocked -> ready -> consLocked -> free); no
// single-writer assumption is made on either side.
type SlotQueue[T any] struct {
	cfg config

	firstBlock *slotQueueBlock[T]
	lastBlock  *slotQueueBlock[T]

	producerCursor atomix.Pointer[slotQueueSlot[T]]
	_              pad
	consumerCursor atomix.Pointer[slotQueueSlot[T]]
	_              pad

	capacity  atomix.Int64
	free      atomix.Int64
	producing atomix.Bool
	consuming atomix.Bool

	growLock *spinlock.Spinlock
}

// NewSlotQueue constructs a SlotQueue with the given options. Panics
// if the block size is smaller than 4 or if an explicit capacity
// limit is smaller than the block size.
func NewSlotQueue[T any](opts ...Option) *SlotQueue[T] {
	cfg := buildConfig(opts)
	if cfg.blockSize < 4 {
		panic("queue: block size must be at least 4")
	}
	if cfg.capacityLimit != 0 && cfg.capacityLimit < cfg.blockSize {
		panic("queue: capacity limit smaller than block size")
	}
	b := newSlotQueueBlock[T](cfg.blockSize)
	q := &SlotQueue[T]{
		cfg:        cfg,
		firstBlock: b,
		lastBlock:  b,
		growLock:   spinlock.New(spinlock.Yield),
	}
	q.producerCursor.StoreRelease(b.firstSlot())
	q.consumerCursor.StoreRelease(b.firstSlot())
	q.capacity.StoreRelease(int64(cfg.blockSize))
	q.free.StoreRelease(int64(cfg.blockSize))
	q.producing.StoreRelease(true)
	q.consuming.StoreRelease(true)
	return q
}

// Capacity reports the current total number of slots, including
// those added by growth.
func (q *SlotQueue[T]) Capacity() int32 { return int32(q.capacity.LoadRelaxed()) }

// Cap is an alias for Capacity, for callers used to the int-returning
// convention of the other variants.
func (q *SlotQueue[T]) Cap() int { return int(q.capacity.LoadRelaxed()) }

// FreeSlots reports the current number of unoccupied slots. Racy by
// nature in a concurrent queue; useful only as an approximation.
func (q *SlotQueue[T]) FreeSlots() int32 { return int32(q.free.LoadRelaxed()) }

// Empty reports whether the queue currently holds no items.
func (q *SlotQueue[T]) Empty() bool {
	return q.free.LoadAcquire() == q.capacity.LoadAcquire()
}

// Producing reports whether the queue still accepts producer acquires.
func (q *SlotQueue[T]) Producing() bool { return q.producing.LoadRelaxed() }

// Consuming reports whether the queue still accepts consumer acquires.
func (q *SlotQueue[T]) Consuming() bool { return q.consuming.LoadRelaxed() }

// Shutdown stops accepting producer acquires.
func (q *SlotQueue[T]) Shutdown() { q.producing.StoreRelease(false) }

// Stop stops accepting both producer and consumer acquires.
func (q *SlotQueue[T]) Stop() {
	q.producing.StoreRelease(false)
	q.consuming.StoreRelease(false)
}

// Grow adds one more block of cfg.blockSize slots regardless of
// GrowthPolicy, but only when no slot is currently free: with a free
// slot it adds nothing and reports true. It reports false when the
// configured capacity limit leaves no room for another block. It is
// the caller's explicit growth hook under GrowCall, and is safe to
// call under any policy.
func (q *SlotQueue[T]) Grow() bool { return q.grow() }

func (q *SlotQueue[T]) grow() bool {
	q.growLock.Lock()
	defer q.growLock.Unlock()

	if q.free.LoadAcquire() != 0 {
		return true
	}
	if q.cfg.capacityLimit != 0 && int(q.capacity.LoadAcquire())+q.cfg.blockSize > q.cfg.capacityLimit {
		return false
	}

	newBlock := newSlotQueueBlockAfter[T](q.cfg.blockSize, q.lastBlock)
	q.lastBlock = newBlock
	q.capacity.AddAcqRel(int64(q.cfg.blockSize))
	q.free.AddAcqRel(int64(q.cfg.blockSize))
	return true
}

// exchangeSlotCursor installs next into cursor and returns the value
// observed just before the swap, mirroring an atomic exchange via
// load-then-CAS retry.
func exchangeSlotCursor[T any](cursor *atomix.Pointer[slotQueueSlot[T]], next *slotQueueSlot[T]) *slotQueueSlot[T] {
	sw := spin.Wait{}
	for {
		old := cursor.LoadAcquire()
		if cursor.CompareAndSwapAcqRel(old, next) {
			return old
		}
		sw.Once()
	}
}

// ProducerAccessor is a held producer slot. The caller must call
// Release exactly once, typically via defer, after writing the
// payload through Value and (under ManualComplete) calling Complete.
type ProducerAccessor[T any] struct {
	q    *SlotQueue[T]
	slot *slotQueueSlot[T]
	c    completion
}

// Valid reports whether the accessor holds a real slot.
func (a *ProducerAccessor[T]) Valid() bool { return a.slot != nil }

// Value returns a pointer to the slot's payload for the caller to
// populate. Calling Value on an invalid accessor is a programming
// error and will panic.
func (a *ProducerAccessor[T]) Value() *T { return &a.slot.payload }

// Complete marks the slot ready to hand to a consumer. Only
// meaningful under ManualComplete; AutoComplete queues always
// complete on Release regardless.
func (a *ProducerAccessor[T]) Complete() { a.c.markDone() }

// Release finishes the accessor: under AutoComplete, or after
// Complete has been called under ManualComplete, the slot becomes
// ready for a consumer. Otherwise the slot reverts to free, as if it
// had never been acquired.
func (a *ProducerAccessor[T]) Release() {
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

// ProducerSlot acquires a free slot for writing. attempts overrides
// the queue's configured attempt budget for this call only.
func (q *SlotQueue[T]) ProducerSlot(attempts ...int) (*ProducerAccessor[T], error) {
	n := q.cfg.attempts
	if len(attempts) > 0 && attempts[0] > 0 {
		n = attempts[0]
	}

	if q.free.LoadAcquire() == 0 && !q.grow() {
		return &ProducerAccessor[T]{q: q, c: completion{mode: q.cfg.mode}}, ErrWouldBlock
	}

	remaining := n - 1
	cur := q.producerCursor.LoadAcquire()
	sentinel := exchangeSlotCursor(&q.producerCursor, cur.next.LoadAcquire())
	current := sentinel

	for q.producing.LoadRelaxed() {
		if current.state.CompareAndSwapAcqRel(uint64(slotFree), uint64(slotProdLocked)) {
			q.free.AddAcqRel(-1)
			return &ProducerAccessor[T]{q: q, slot: current, c: completion{mode: q.cfg.mode}}, nil
		}
		current = exchangeSlotCursor(&q.producerCursor, current.next.LoadAcquire())

		if current == sentinel {
			if remaining < 1 {
				break
			}
			remaining--
			if q.cfg.growth == GrowRound {
				if q.free.LoadAcquire() == 0 && !q.grow() {
					return &ProducerAccessor[T]{q: q, c: completion{mode: q.cfg.mode}}, ErrWouldBlock
				}
			}
		}
		if q.cfg.growth == GrowStep {
			if q.free.LoadAcquire() == 0 && !q.grow() {
				return &ProducerAccessor[T]{q: q, c: completion{mode: q.cfg.mode}}, ErrWouldBlock
			}
		}
	}
	return &ProducerAccessor[T]{q: q, c: completion{mode: q.cfg.mode}}, ErrWouldBlock
}

// ConsumerAccessor is a held consumer slot, mirroring ProducerAccessor.
type ConsumerAccessor[T any] struct {
	q    *SlotQueue[T]
	slot *slotQueueSlot[T]
	c    completion
}

func (a *ConsumerAccessor[T]) Valid() bool { return a.slot != nil }

// Value returns a pointer to the slot's payload for the caller to
// read from.
func (a *ConsumerAccessor[T]) Value() *T { return &a.slot.payload }

// Complete marks the slot consumed and safe to recycle as free.
// Only meaningful under ManualComplete.
func (a *ConsumerAccessor[T]) Complete() { a.c.markDone() }

// Release finishes the accessor: under AutoComplete, or after
// Complete has been called under ManualComplete, the slot is
// recycled as free. Otherwise it reverts to ready so another
// consumer can retry it.
func (a *ConsumerAccessor[T]) Release() {
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

// ConsumerSlot acquires a ready slot for reading. attempts overrides
// the queue's configured attempt budget for this call only.
func (q *SlotQueue[T]) ConsumerSlot(attempts ...int) (*ConsumerAccessor[T], error) {
	n := q.cfg.attempts
	if len(attempts) > 0 && attempts[0] > 0 {
		n = attempts[0]
	}

	remaining := n - 1
	cur := q.consumerCursor.LoadAcquire()
	sentinel := exchangeSlotCursor(&q.consumerCursor, cur.next.LoadAcquire())
	current := sentinel

	for q.consuming.LoadRelaxed() && q.free.LoadAcquire() != q.capacity.LoadAcquire() {
		if current.state.CompareAndSwapAcqRel(uint64(slotReady), uint64(slotConsLocked)) {
			return &ConsumerAccessor[T]{q: q, slot: current, c: completion{mode: q.cfg.mode}}, nil
		}
		current = exchangeSlotCursor(&q.consumerCursor, current.next.LoadAcquire())

		if current == sentinel {
			if remaining < 1 {
				break
			}
			remaining--
		}
	}
	return &ConsumerAccessor[T]{q: q, c: completion{mode: q.cfg.mode}}, ErrWouldBlock
}

// Enqueue is the single-step convenience form of ProducerSlot: it
// acquires a slot, copies v into it, and completes immediately
// regardless of the queue's configured CompletionMode.
func (q *SlotQueue[T]) Enqueue(v T) error {
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
func (q *SlotQueue[T]) Dequeue() (T, error) {
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
