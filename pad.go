// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

// ptrSize is the size in bytes of a pointer/word on the target platform.
const ptrSize = 4 << (^uintptr(0) >> 63)

// pad fills out a cache line (64 bytes) after a field so that two
// hot fields accessed by different goroutines never land on the same
// line and false-share.
type pad [64]byte

// padShort fills out a cache line after a single uint64-sized field.
type padShort [64 - 8]byte

// padPtr fills out a cache line after a single pointer-sized field.
type padPtr [64 - ptrSize]byte
