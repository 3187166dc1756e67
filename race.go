// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package queue

// RaceEnabled is true when the race detector is active. Stress tests
// that spin up large worker fleets check this to cut their iteration
// counts, since the race detector's instrumentation overhead turns
// otherwise-brief soak tests into multi-minute ones.
const RaceEnabled = true
