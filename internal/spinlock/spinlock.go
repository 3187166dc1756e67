// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package spinlock provides busy-wait mutual exclusion with three
// waiting disciplines: active spin, yield-to-scheduler, and
// park-on-flag with notify.
//
// Non-reentrant. Intended for slow paths only: ring growth, the epoch
// queue's Purge, spinlock-backed enqueue/dequeue.
package spinlock

import (
	"runtime"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Discipline selects the waiting strategy used on contention.
type Discipline int

const (
	// Active spins on the flag without yielding the OS thread.
	// Appropriate for very short critical sections (e.g. the epoch
	// queue's Purge).
	Active Discipline = iota
	// Yield calls into the scheduler between spin attempts.
	// Appropriate for possibly-long sections (growth, purge).
	Yield
	// Park blocks on a notification channel instead of spinning.
	// Kept as a first-class option and always channel-based on every
	// platform, since neither the standard library nor any pack
	// dependency exposes an atomic wait/notify primitive equivalent to
	// atomic_flag::wait.
	Park
)

// Spinlock is a test-and-set flag guarded mutex with a configurable
// waiting discipline. The zero value is not usable; construct with New.
type Spinlock struct {
	flag       atomix.Bool
	discipline Discipline
	wake       chan struct{}
}

// New creates a Spinlock using the given waiting discipline.
func New(d Discipline) *Spinlock {
	sl := &Spinlock{discipline: d}
	if d == Park {
		sl.wake = make(chan struct{}, 1)
	}
	return sl
}

// Lock acquires the lock with acquire semantics.
func (sl *Spinlock) Lock() {
	sw := spin.Wait{}
	for !sl.flag.CompareAndSwapAcqRel(false, true) {
		switch sl.discipline {
		case Yield:
			sw.Once()
			runtime.Gosched()
		case Park:
			<-sl.wake
		default:
			sw.Once()
		}
	}
}

// Unlock releases the lock with release semantics and, under the Park
// discipline, wakes one waiter.
func (sl *Spinlock) Unlock() {
	sl.flag.StoreRelease(false)
	if sl.discipline == Park {
		select {
		case sl.wake <- struct{}{}:
		default:
		}
	}
}
