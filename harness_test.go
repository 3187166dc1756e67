// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue_test

import (
	"strings"
	"testing"
	"time"

	queue "github.com/ixotoxin/fast-mpmc-queue"
)

func TestSameWorkerConfig(t *testing.T) {
	c := queue.Same(4)
	if c.Producers != 4 || c.Consumers != 4 {
		t.Fatalf("got %+v, want 4/4", c)
	}
	if c := queue.Same(0); c.Producers != 1 || c.Consumers != 1 {
		t.Fatalf("Same(0) = %+v, want at least 1/1", c)
	}
}

func TestProportionWorkerConfig(t *testing.T) {
	c := queue.Proportion(8, 3)
	if c.Producers != 3 || c.Consumers != 5 {
		t.Fatalf("got %+v, want 3/5", c)
	}
	if c := queue.Proportion(8, 0); c.Producers != 1 {
		t.Fatalf("Proportion with 0 producers should clamp to 1, got %+v", c)
	}
	if c := queue.Proportion(4, 10); c.Producers != 4 {
		t.Fatalf("Proportion should clamp producers to total, got %+v", c)
	}
	if c := queue.Proportion(4, 4); c.Consumers != 1 {
		t.Fatalf("Proportion should leave at least 1 consumer, got %+v", c)
	}
}

func TestDefaultWorkerConfigsNonEmpty(t *testing.T) {
	cfgs := queue.DefaultWorkerConfigs()
	if len(cfgs) != 4 {
		t.Fatalf("got %d configs, want 4", len(cfgs))
	}
	for _, c := range cfgs {
		if c.Producers < 1 || c.Consumers < 1 {
			t.Fatalf("invalid worker config: %+v", c)
		}
	}
}

func TestSummaryStringRendersAllFields(t *testing.T) {
	s := queue.Summary{
		Items:        1000,
		GrowthPolicy: "round",
		Attempts:     4,
		Producers:    queue.WorkerStats{Count: 2, Elapsed: 10 * time.Millisecond, Successes: 500, Fails: 1},
		Consumers:    queue.WorkerStats{Count: 2, Elapsed: 12 * time.Millisecond, Successes: 1000, Fails: 0},
		Capacity:     256,
		BlockSize:    256,
		MaxCapacity:  1024,
		ControlSumOK: true,
		TotalElapsed: 15 * time.Millisecond,
	}
	out := s.String()

	for _, want := range []string{
		"Number of processed items: 1000",
		"Queue growth policy: allow at each round",
		"Slot acquire attempts: 4",
		"Actual queue capacity: 256",
		"Control sum: OK",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryStringReportsInvalidControlSum(t *testing.T) {
	s := queue.Summary{ControlSumOK: false}
	if !strings.Contains(s.String(), "Control sum: Invalid") {
		t.Fatal("expected an Invalid control sum line")
	}
}
