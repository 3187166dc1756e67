// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	queue "github.com/ixotoxin/fast-mpmc-queue"
)

// linearizabilityTest launches numP producers, each enqueuing
// itemsPerProd items, and numC consumers that together drain all of
// them, and verifies every value is delivered exactly once (no
// duplicates, none missing). Values are encoded as
// producerID*100000 + sequence, mirroring the convention used to spot
// duplicate deliveries in a concurrent FIFO.
type linearizabilityTest struct {
	t            *testing.T
	numP, numC   int
	itemsPerProd int
	timeout      time.Duration
}

func (lt *linearizabilityTest) run(enqueue func(v int) error, dequeue func() (int, error)) {
	t := lt.t
	if queue.RaceEnabled {
		t.Skip("skip: linearizability test requires concurrent access")
	}

	var wg sync.WaitGroup
	expectedTotal := lt.numP * lt.itemsPerProd
	seen := make([]atomix.Int32, expectedTotal)
	var timedOut atomix.Bool

	for p := range lt.numP {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			deadline := time.Now().Add(lt.timeout)
			backoff := iox.Backoff{}
			for i := range lt.itemsPerProd {
				v := id*100000 + i
				for enqueue(v) != nil {
					if time.Now().After(deadline) {
						timedOut.Store(true)
						return
					}
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	var consumeCount atomix.Int64
	for range lt.numC {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deadline := time.Now().Add(lt.timeout)
			backoff := iox.Backoff{}
			for consumeCount.Load() < int64(expectedTotal) {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				v, err := dequeue()
				if err == nil {
					producerID := v / 100000
					seq := v % 100000
					if producerID < 0 || producerID >= lt.numP || seq < 0 || seq >= lt.itemsPerProd {
						t.Errorf("value out of range: %d", v)
						consumeCount.Add(1)
						continue
					}
					idx := producerID*lt.itemsPerProd + seq
					seen[idx].Add(1)
					consumeCount.Add(1)
					backoff.Reset()
				} else {
					backoff.Wait()
				}
			}
		}()
	}

	wg.Wait()

	var missing, duplicates int
	for i := range expectedTotal {
		count := seen[i].Load()
		switch {
		case count == 0:
			missing++
		case count > 1:
			duplicates++
		}
	}

	if duplicates > 0 {
		t.Errorf("linearizability violation: %d duplicates detected", duplicates)
	}
	if missing > 0 {
		t.Errorf("linearizability violation: %d/%d items never consumed", missing, expectedTotal)
	} else if timedOut.Load() {
		t.Logf("consumed %d/%d (missing=%d)", consumeCount.Load(), expectedTotal, missing)
	}
}

// abaTester is the minimal surface a fill-drain cycle test needs.
type abaTester interface {
	Enqueue(v int) error
	Dequeue() (int, error)
}

// testABASafety repeatedly fills q to n items and drains it completely,
// checking that every value comes back exactly once per cycle. Any
// stale pointer comparison bug in a lock-free queue's CAS loop tends to
// surface as a duplicate or lost item once a node's memory is reused
// across cycles.
func testABASafety(t *testing.T, q abaTester, n, cycles int) {
	t.Helper()
	for c := 0; c < cycles; c++ {
		for i := 0; i < n; i++ {
			if err := q.Enqueue(c*n + i); err != nil {
				t.Fatalf("cycle %d: enqueue %d: %v", c, i, err)
			}
		}
		seen := make(map[int]bool, n)
		for i := 0; i < n; i++ {
			v, err := q.Dequeue()
			if err != nil {
				t.Fatalf("cycle %d: dequeue %d: %v", c, i, err)
			}
			if seen[v] {
				t.Fatalf("cycle %d: value %d dequeued twice", c, v)
			}
			seen[v] = true
		}
		if _, err := q.Dequeue(); err == nil {
			t.Fatalf("cycle %d: queue not empty after draining %d items", c, n)
		}
	}
}

// testProgress checks liveness under contention: with numGoroutines
// producers and the same number of consumers hammering q at once,
// overall throughput must keep climbing rather than stall out, which
// would indicate a livelock in the CAS retry loop.
func testProgress(t *testing.T, q abaTester, numGoroutines int) {
	t.Helper()
	if queue.RaceEnabled || testing.Short() {
		t.Skip("skip: requires concurrent access")
	}

	var consumed atomix.Int64
	stop := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			n := 0
			for {
				select {
				case <-stop:
					return
				default:
				}
				if q.Enqueue(id*1000000+n) == nil {
					n++
				}
			}
		}(i)
	}
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := q.Dequeue(); err == nil {
					consumed.Add(1)
				}
			}
		}()
	}

	retryWithTimeout(t, 5*time.Second, func() bool {
		return consumed.Load() > 10000
	}, "queue made no progress under contention")

	close(stop)
	wg.Wait()
}
