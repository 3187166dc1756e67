// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iox"

	queue "github.com/ixotoxin/fast-mpmc-queue"
)

func TestMPSCQueueBasicEnqueueDequeue(t *testing.T) {
	q := queue.NewMPSCQueue[int]()

	if !q.Empty() {
		t.Fatal("new queue should be empty")
	}
	if err := q.Enqueue(42); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	v, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if v != 42 {
		t.Fatalf("got %d, want 42", v)
	}
}

func TestMPSCQueueDequeueEmptyWouldBlock(t *testing.T) {
	q := queue.NewMPSCQueue[int]()
	if _, err := q.Dequeue(); !queue.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
}

func TestMPSCQueueSinglePoducerFIFOOrdering(t *testing.T) {
	q := queue.NewMPSCQueue[int]()
	for i := 0; i < 100; i++ {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}
	for i := 0; i < 100; i++ {
		v, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue %d: %v", i, err)
		}
		if v != i {
			t.Fatalf("got %d, want %d", v, i)
		}
	}
}

// TestMPSCQueueFIFOOrderingPerProducer checks that, although the
// interleaving of distinct producers is unspecified, every single
// producer's own items still arrive at the consumer in the order it
// enqueued them.
func TestMPSCQueueFIFOOrderingPerProducer(t *testing.T) {
	if queue.RaceEnabled || testing.Short() {
		t.Skip("skip: requires concurrent producers")
	}

	const numProducers = 8
	const itemsPerProducer = 5000

	q := queue.NewMPSCQueue[int]()
	var wg sync.WaitGroup
	for p := 0; p < numProducers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			for i := 0; i < itemsPerProducer; i++ {
				v := id*itemsPerProducer + i
				for q.Enqueue(v) != nil {
					backoff.Wait()
				}
				backoff.Reset()
			}
		}(p)
	}

	lastSeen := make([]int, numProducers)
	for i := range lastSeen {
		lastSeen[i] = -1
	}

	total := numProducers * itemsPerProducer
	deadline := time.Now().Add(10 * time.Second)
	backoff := iox.Backoff{}
	for n := 0; n < total; {
		v, err := q.Dequeue()
		if err != nil {
			if time.Now().After(deadline) {
				t.Fatalf("timed out after consuming %d/%d items", n, total)
			}
			backoff.Wait()
			continue
		}
		backoff.Reset()
		producerID := v / itemsPerProducer
		seq := v % itemsPerProducer
		if seq <= lastSeen[producerID] {
			t.Fatalf("producer %d: out-of-order delivery, saw %d after %d", producerID, seq, lastSeen[producerID])
		}
		lastSeen[producerID] = seq
		n++
	}
	wg.Wait()
}

func TestMPSCQueueLinearizability(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	q := queue.NewMPSCQueue[int]()
	lt := &linearizabilityTest{t: t, numP: 8, numC: 1, itemsPerProd: 5000, timeout: 10 * time.Second}
	lt.run(q.Enqueue, q.Dequeue)
}

func TestMPSCQueueShutdownStopsProducingOnly(t *testing.T) {
	q := queue.NewMPSCQueue[int]()
	if err := q.Enqueue(1); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	q.Shutdown()
	if err := q.Enqueue(2); !queue.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock after Shutdown", err)
	}
	if _, err := q.Dequeue(); err != nil {
		t.Fatalf("Dequeue after Shutdown should still succeed: %v", err)
	}
}

func TestMPSCQueueStopStopsBothSides(t *testing.T) {
	q := queue.NewMPSCQueue[int]()
	if err := q.Enqueue(1); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	q.Stop()
	if _, err := q.Dequeue(); !queue.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock after Stop", err)
	}
}
