// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package colorbarrier provides an asymmetric reader/writer
// coordinator used to guard deferred deletion: the "green" color is
// held by operation threads (enqueue/dequeue), the "red" color by
// reclaimers (purge). Many greens may coexist, many reds may
// coexist, but green and red never coexist.
package colorbarrier

import (
	"runtime"

	"code.hybscloud.com/atomix"
)

// Barrier is the shared coordinator. The zero value is ready to use.
type Barrier struct {
	red   atomix.Int64
	green atomix.Int64
}

// LockGreen waits until no red holder is live, then joins as green.
// Wait-free against other greens; starvation-tolerant (spin-yield)
// against red.
func (b *Barrier) LockGreen() {
	for b.red.LoadAcquire() != 0 {
		runtime.Gosched()
	}
	b.green.AddAcqRel(1)
}

// UnlockGreen leaves the green color.
func (b *Barrier) UnlockGreen() {
	b.green.AddAcqRel(-1)
}

// LockRed waits until no green holder is live, then joins as red.
func (b *Barrier) LockRed() {
	for b.green.LoadAcquire() != 0 {
		runtime.Gosched()
	}
	b.red.AddAcqRel(1)
}

// UnlockRed leaves the red color.
func (b *Barrier) UnlockRed() {
	b.red.AddAcqRel(-1)
}
