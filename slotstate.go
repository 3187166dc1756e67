// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

// slotState is the lifecycle of a single slot in a ring-of-blocks or
// fixed-ring queue. A producer moves a slot free -> prodLocked ->
// ready; a consumer moves it ready -> consLocked -> free.
type slotState uint64

const (
	slotFree slotState = iota
	slotProdLocked
	slotReady
	slotConsLocked
)

// CompletionMode selects who flips a locked slot to its next state.
//
// Under AutoComplete an accessor's Release always performs the
// ready/free transition. Under ManualComplete the caller holds the
// locked slot open (e.g. to write a payload in several steps) and
// must call Complete before Release to publish or consume it; a
// Release without Complete abandons the slot instead: a producer slot
// reverts to free, a consumer slot back to ready. Enqueue and Dequeue
// call Complete themselves, so they behave the same in either mode.
type CompletionMode int

const (
	AutoComplete CompletionMode = iota
	ManualComplete
)

// GrowthPolicy selects when a SlotQueue allocates a new block once a
// producer finds the ring full. In every policy the very first full
// check a producer makes still grows the queue once if room remains;
// the policies differ only in what happens after that during the
// retry loop.
type GrowthPolicy int

const (
	// GrowRound grows once per full lap around the ring (every time
	// the retry loop returns to its starting slot and still finds no
	// free slot). This is the default: it grows lazily, at most once
	// per lap, rather than on every failed attempt.
	GrowRound GrowthPolicy = iota
	// GrowStep grows eagerly, checking after every failed slot visit
	// rather than waiting for a full lap.
	GrowStep
	// GrowCall disables automatic growth inside the retry loop beyond
	// the initial check. Callers that want more room must call Grow
	// explicitly between acquire attempts.
	GrowCall
)

// completion carries the per-slot accessor's finishing step. Auto
// completion finishes as soon as the accessor is released; manual
// completion finishes only after an explicit Complete call, and a
// Release without it takes the abandon branch.
type completion struct {
	mode CompletionMode
	done bool
}

func (c *completion) autoComplete() bool {
	return c.mode == AutoComplete
}

func (c *completion) markDone() {
	c.done = true
}
