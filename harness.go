// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// WorkerConfig is a producers/consumers split for a load test,
// derived from the available CPU count the same way the original
// benchmark harness derived its worker counts from
// hardware_concurrency.
type WorkerConfig struct {
	Producers int
	Consumers int
}

// Same returns a WorkerConfig with equal producer and consumer
// counts, at least 1 each.
func Same(workers int) WorkerConfig {
	if workers < 1 {
		workers = 1
	}
	return WorkerConfig{Producers: workers, Consumers: workers}
}

// Proportion splits total CPUs into a producers/consumers pair:
// producers get the given count clamped to [1, total], and consumers
// the rest but never fewer than 1, so the pair can sum to total+1.
func Proportion(total, producers int) WorkerConfig {
	if producers < 1 {
		producers = 1
	}
	if producers > total {
		producers = total
	}
	consumers := total - producers
	if consumers < 1 {
		consumers = 1
	}
	return WorkerConfig{Producers: producers, Consumers: consumers}
}

// DefaultWorkerConfigs returns the four worker splits the original
// harness swept through (producers/consumers): half/half, roughly
// two-thirds/one-third, one-per-core, and double one-per-core.
func DefaultWorkerConfigs() []WorkerConfig {
	cores := runtime.NumCPU()
	return []WorkerConfig{
		Proportion(cores, cores/2),
		Proportion(cores, int(float64(cores)/3.0*2.0)),
		Same(cores),
		Same(cores * 2),
	}
}

// WorkerStats accumulates one side's (producer or consumer) acquire
// outcomes and elapsed time for a Summary.
type WorkerStats struct {
	Count     int
	Elapsed   time.Duration
	Successes int64
	Fails     int64
}

// Summary is a load test's final report, rendered with the same
// section layout as the original harness's stringstream-built
// reports (item count, policy/attempts line, a producers/consumers
// timing table, capacity, then a control-sum/total-time line).
type Summary struct {
	Items         int64
	GrowthPolicy  string
	Attempts      int
	Producers     WorkerStats
	Consumers     WorkerStats
	Capacity      int
	BlockSize     int
	MaxCapacity   int
	ControlSumOK  bool
	TotalElapsed  time.Duration
}

// String renders the summary the way the original test binary
// printed to stdout.
func (s Summary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n   Number of processed items: %d\n", s.Items)
	fmt.Fprintf(&b, "   Queue growth policy: allow at each %s\n", s.GrowthPolicy)
	fmt.Fprintf(&b, "   Slot acquire attempts: %d\n", s.Attempts)
	b.WriteString("  -----------+------+--------------+-------------+-------------\n")
	b.WriteString("   WRK. TYPE | NUM. |  ACQU. TIME  | ACQU. SUCC. | ACQU. FAILS\n")
	b.WriteString("  -----------+------+--------------+-------------+-------------\n")
	fmt.Fprintf(&b, "   Producers | %4d | %9.2f ms | %11d | %11d\n",
		s.Producers.Count, float64(s.Producers.Elapsed.Microseconds())/1000, s.Producers.Successes, s.Producers.Fails)
	fmt.Fprintf(&b, "   Consumers | %4d | %9.2f ms | %11d | %11d\n",
		s.Consumers.Count, float64(s.Consumers.Elapsed.Microseconds())/1000, s.Consumers.Successes, s.Consumers.Fails)
	b.WriteString("  -----------+------+--------------+-------------+-------------\n")
	fmt.Fprintf(&b, "   Actual queue capacity: %d slot (min: %d, max: %d)\n", s.Capacity, s.BlockSize, s.MaxCapacity)

	ok := "Invalid"
	if s.ControlSumOK {
		ok = "OK"
	}
	fmt.Fprintf(&b, "   Control sum: %s\n", ok)
	fmt.Fprintf(&b, "   Real total time: %.2f ms\n\n", float64(s.TotalElapsed.Microseconds())/1000)

	return b.String()
}
