// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"testing"
	"time"

	queue "github.com/ixotoxin/fast-mpmc-queue"
)

func TestSpinlockMPMCQueueBasicEnqueueDequeue(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()

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

func TestSpinlockMPMCQueueDequeueEmptyWouldBlock(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()
	if _, err := q.Dequeue(); !queue.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
}

func TestSpinlockMPMCQueueFIFOOrderingSingleProducer(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()
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

func TestSpinlockMPMCQueueABASafety(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()
	testABASafety(t, q, 8, 50)
}

func TestSpinlockMPMCQueueLinearizability(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	q := queue.NewSpinlockMPMCQueue[int]()
	lt := &linearizabilityTest{t: t, numP: 4, numC: 4, itemsPerProd: 5000, timeout: 10 * time.Second}
	lt.run(q.Enqueue, q.Dequeue)
}

func TestSpinlockMPMCQueueProgress(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()
	testProgress(t, q, 4)
}

func TestSpinlockMPMCQueueShutdownStopsProducingOnly(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()
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

func TestSpinlockMPMCQueueStopStopsBothSides(t *testing.T) {
	q := queue.NewSpinlockMPMCQueue[int]()
	if err := q.Enqueue(1); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	q.Stop()
	if err := q.Enqueue(2); !queue.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock after Stop", err)
	}
	if _, err := q.Dequeue(); !queue.IsWouldBlock(err) {
		t.Fatalf("got %v, want ErrWouldBlock after Stop", err)
	}
}
