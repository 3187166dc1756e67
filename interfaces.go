// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

// Shutdowner signals that no more producers will call Enqueue. Queues
// that implement it let their consumers drain remaining items and
// then observe a clean end rather than blocking forever.
type Shutdowner interface {
	// Shutdown stops accepting new producers: every later Enqueue or
	// producer acquire reports ErrWouldBlock, while consumers keep
	// draining what remains.
	Shutdown()
}

// Stopper extends Shutdowner to also stop consumers, for queues that
// need to unwind both sides together.
type Stopper interface {
	Shutdowner
	// Stop stops accepting both new producers and new consumers.
	Stop()
}

// Toucher marks the calling goroutine as active within the current
// epoch of an epoch-reclaimed queue. Pair every Touch with an Escape
// of the epoch it returned, typically via defer.
type Toucher interface {
	// Touch records that the caller is about to access the queue and
	// returns the epoch observed.
	Touch() uint64
}

// Escaper pairs with Toucher: it retires the caller's participation
// in the epoch recorded by Touch, unblocking reclamation of anything
// retired at or before that epoch once every toucher has escaped it.
type Escaper interface {
	// Escape releases the caller's hold on the epoch returned by an
	// earlier Touch.
	Escape(epoch uint64)
}

// Purger reclaims memory that deferred-deletion or epoch-based queues
// could not free immediately because a concurrent reader might still
// observe it.
type Purger interface {
	// Purge reclaims everything safe to free given the current set of
	// active readers. Safe to call concurrently with Enqueue/Dequeue;
	// it only ever frees what is provably unreachable.
	Purge()
}
