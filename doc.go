// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides a family of concurrent FIFO queues, each
// trading a different set of constraints for throughput:
//
//   - SlotQueue: bounded, growable ring-of-blocks MPMC queue with a
//     CAS-guarded slot state machine.
//   - RingQueue: fixed-size, allocation-free MPMC queue — the same
//     slot state machine over a single array instead of linked blocks.
//   - MPSCQueue: unbounded multi-producer single-consumer linked list.
//   - SpinlockMPMCQueue: unbounded MPMC built on the same linked list,
//     serialized through a single spinlock on both ends.
//   - EpochQueue: unbounded lock-free MPMC (Michael-Scott), reclaiming
//     unlinked nodes through epoch tracking (Touch/Escape/Purge).
//   - ColorQueue: unbounded lock-free MPMC, reclaiming unlinked nodes
//     through an asymmetric color barrier instead of epochs.
//
// # Quick Start
//
//	q := queue.NewSlotQueue[Event](queue.WithBlockSize(256))
//	q := queue.NewRingQueue[Event](4096)
//	q := queue.NewMPSCQueue[Event]()
//	q := queue.NewEpochQueue[Event]()
//
// # Basic Usage
//
// Every variant shares the same Enqueue/Dequeue shape:
//
//	value := 42
//	err := q.Enqueue(value)
//	if queue.IsWouldBlock(err) {
//	    // full, or (for the unbounded variants) shut down
//	}
//
//	elem, err := q.Dequeue()
//	if queue.IsWouldBlock(err) {
//	    // empty, or shut down
//	}
//
// SlotQueue and RingQueue additionally expose a two-step accessor
// form, ProducerSlot/ConsumerSlot, for callers that want to write or
// read the payload in place rather than copy it through Enqueue's
// and Dequeue's by-value signature:
//
//	acc, err := q.ProducerSlot()
//	if err != nil {
//	    return err
//	}
//	*acc.Value() = buildEvent()
//	acc.Release()
//
// Under [ManualComplete], the accessor's slot stays locked until the
// caller calls Complete before Release; omitting Complete abandons
// the slot back to free instead of publishing it.
//
// # Choosing a variant
//
// SlotQueue and RingQueue bound memory and give producers backpressure
// (ErrWouldBlock when full) without ever touching the heap on the hot
// path, at the cost of a fixed or growable-but-still-finite capacity.
// MPSCQueue, SpinlockMPMCQueue, EpochQueue, and ColorQueue are
// unbounded linked structures: Enqueue never reports backpressure
// (short of Shutdown), but each item costs an allocation.
//
// Among the unbounded ones, MPSCQueue is the cheapest when only one
// consumer goroutine exists. SpinlockMPMCQueue is the simplest MPMC
// option and the easiest to reason about, at the cost of serializing
// every operation through one lock. EpochQueue and ColorQueue are
// both fully lock-free MPMC with different reclamation strategies —
// EpochQueue tracks generations through Touch/Escape, which its own
// Enqueue and Dequeue call, and runs Purge by itself every 256
// dequeues; ColorQueue instead blocks Purge behind a barrier that
// waits out any in-flight Enqueue/Dequeue, and never runs Purge on
// its own.
//
// # Growth
//
// SlotQueue grows by splicing a new block into its existing ring
// rather than reallocating, so producer or consumer cursors already
// in flight never observe a torn structure. [GrowthPolicy] controls
// when growth happens automatically; [GrowCall] disables automatic
// growth beyond the very first check, leaving it to explicit calls
// to Grow.
//
// # Error Handling
//
// [ErrWouldBlock] is sourced from [code.hybscloud.com/iox] for
// ecosystem consistency, and is a control flow signal, not a failure:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !queue.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// # Graceful Shutdown
//
// Every variant implements both [Shutdowner] and [Stopper]. Call
// Shutdown once
// producers are done so consumers can drain what remains and then
// observe ErrWouldBlock cleanly instead of racing a producer that
// will never arrive.
//
// # Memory Reclamation
//
// EpochQueue and ColorQueue never call an explicit free: both rely on
// Go's garbage collector to reclaim a retired node once nothing
// references it anymore. What Touch/Escape/Purge and the color
// barrier actually guard is the *timing* of when a retired node's
// last reference is dropped — not later than it's safe, so a
// concurrent reader can never observe a node mid-reuse, but also not
// so much later that retired nodes pile up indefinitely. Call Purge
// periodically (e.g. from a background goroutine) rather than after
// every Dequeue; it is a no-op when nothing is yet safe to drop.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions in hot retry loops.
package queue
