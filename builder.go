// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

// config holds the configuration axes that the original C++ queue
// family expressed as template parameters (block size, capacity
// limit, completion mode, attempts, growth policy). Go has no
// non-type template parameters, so they become fields set through
// functional options at construction time instead.
type config struct {
	blockSize     int
	capacityLimit int
	mode          CompletionMode
	attempts      int
	growth        GrowthPolicy
}

func defaultConfig() config {
	return config{
		blockSize:     256,
		capacityLimit: 0, // 0 means unbounded
		mode:          AutoComplete,
		attempts:      4,
		growth:        GrowRound,
	}
}

// Option configures a SlotQueue or RingQueue at construction time.
type Option func(*config)

// WithBlockSize sets the number of slots per block of a SlotQueue.
// Must be positive; non-positive values are ignored. RingQueue ignores
// it: its length is the size argument of NewRingQueue.
func WithBlockSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithCapacityLimit caps the total number of slots a SlotQueue may
// grow to. Zero (the default) means unbounded.
func WithCapacityLimit(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.capacityLimit = n
		}
	}
}

// WithManualCompletion switches the queue from automatic completion
// (the default) to manual: callers must call Complete on an accessor
// returned by ProducerSlot/ConsumerSlot before Release, or the slot is
// abandoned. Enqueue and Dequeue call Complete themselves.
func WithManualCompletion() Option {
	return func(c *config) {
		c.mode = ManualComplete
	}
}

// WithAttempts sets how many full laps around the ring a producer or
// consumer makes in one acquire call before reporting ErrWouldBlock.
// Must be positive.
func WithAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithGrowthPolicy selects what a SlotQueue does once every block is
// full. Not applicable to RingQueue, which never grows.
func WithGrowthPolicy(g GrowthPolicy) Option {
	return func(c *config) {
		c.growth = g
	}
}

func buildConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
