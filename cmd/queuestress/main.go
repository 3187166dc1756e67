// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command queuestress drives one of the queue variants with a
// configurable producer/consumer fleet and prints a load-test summary,
// the same shape of report the original test binaries printed to
// stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"

	queue "github.com/ixotoxin/fast-mpmc-queue"
)

type runConfig struct {
	variant      string
	items        int64
	producers    int
	consumers    int
	blockSize    int
	attempts     int
	growthPolicy string
	logLevel     string
}

var cfg = &runConfig{}

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:        "variant",
		Value:       "slot",
		Usage:       "queue variant: slot, ring, mpsc, mpmcsl, ebr, dd",
		Destination: &cfg.variant,
	},
	&cli.Int64Flag{
		Name:        "items",
		Value:       1_000_000,
		Usage:       "total items to push through the queue",
		Destination: &cfg.items,
	},
	&cli.IntFlag{
		Name:        "producers",
		Value:       runtime.NumCPU(),
		Usage:       "number of producer goroutines",
		Destination: &cfg.producers,
	},
	&cli.IntFlag{
		Name:        "consumers",
		Value:       runtime.NumCPU(),
		Usage:       "number of consumer goroutines (the mpsc variant always uses 1)",
		Destination: &cfg.consumers,
	},
	&cli.IntFlag{
		Name:        "block-size",
		Value:       256,
		Usage:       "slot block size (slot variant) or ring size (ring variant)",
		Destination: &cfg.blockSize,
	},
	&cli.IntFlag{
		Name:        "attempts",
		Value:       4,
		Usage:       "slot acquire attempts before giving up (slot/ring variants only)",
		Destination: &cfg.attempts,
	},
	&cli.StringFlag{
		Name:        "growth",
		Value:       "round",
		Usage:       "growth policy for the slot variant: round, step, call",
		Destination: &cfg.growthPolicy,
	},
	&cli.StringFlag{
		Name:        "log-level",
		Value:       "info",
		Usage:       "zerolog level: debug, info, warn, error, disabled",
		Destination: &cfg.logLevel,
	},
}

func growthPolicyFromFlag(s string) queue.GrowthPolicy {
	switch s {
	case "step":
		return queue.GrowStep
	case "call":
		return queue.GrowCall
	default:
		return queue.GrowRound
	}
}

// workload is the minimal surface queuestress needs to drive any
// queue variant generically, instead of special-casing each one.
type workload interface {
	Enqueue(v int64) error
	Dequeue() (int64, error)
	Shutdown()
}

func buildQueue(c *runConfig) (workload, int, error) {
	switch c.variant {
	case "slot":
		q := queue.NewSlotQueue[int64](
			queue.WithBlockSize(c.blockSize),
			queue.WithAttempts(c.attempts),
			queue.WithGrowthPolicy(growthPolicyFromFlag(c.growthPolicy)),
		)
		return q, int(q.Capacity()), nil
	case "ring":
		q := queue.NewRingQueue[int64](c.blockSize, queue.WithAttempts(c.attempts))
		return q, int(q.Capacity()), nil
	case "mpsc":
		return queue.NewMPSCQueue[int64](), -1, nil
	case "mpmcsl":
		return queue.NewSpinlockMPMCQueue[int64](), -1, nil
	case "ebr":
		return queue.NewEpochQueue[int64](), -1, nil
	case "dd":
		return queue.NewColorQueue[int64](), -1, nil
	default:
		return nil, 0, fmt.Errorf("unknown variant %q", c.variant)
	}
}

func runLoad(ctx context.Context, c *runConfig) (queue.Summary, error) {
	q, capacity, err := buildQueue(c)
	if err != nil {
		return queue.Summary{}, err
	}
	if c.variant == "mpsc" && c.consumers > 1 {
		// MPSCQueue.Dequeue supports a single consumer goroutine only.
		single := *c
		single.consumers = 1
		c = &single
	}

	pool := pond.New(c.producers+c.consumers, c.producers+c.consumers)
	defer pool.StopAndWait()

	g, gctx := errgroup.WithContext(ctx)

	perProducer := c.items / int64(c.producers)
	produced := make([]int64, c.producers)
	prodElapsed := make([]time.Duration, c.producers)
	for i := 0; i < c.producers; i++ {
		i := i
		n := perProducer
		if i == c.producers-1 {
			n = c.items - perProducer*int64(c.producers-1)
		}
		g.Go(func() error {
			// Stagger goroutine starts so the first acquire attempts
			// don't all land in the same instant and skew the timing
			// table toward whichever goroutine the scheduler ran first.
			time.Sleep(time.Duration(fastrand.Uint32n(1000)) * time.Microsecond)
			start := time.Now()
			var done int64
			for done < n {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if err := q.Enqueue(done); err == nil {
					done++
				}
			}
			produced[i] = done
			prodElapsed[i] = time.Since(start)
			return nil
		})
	}

	consumed := make([]int64, c.consumers)
	consElapsed := make([]time.Duration, c.consumers)
	var consumedTotal int64
	done := make(chan struct{})
	go func() {
		if err := g.Wait(); err != nil {
			log.Error().Err(err).Msg("producer fleet returned early")
		}
		q.Shutdown()
		close(done)
	}()

	cg, _ := errgroup.WithContext(ctx)
	for i := 0; i < c.consumers; i++ {
		i := i
		cg.Go(func() error {
			start := time.Now()
			var n int64
			for {
				if _, err := q.Dequeue(); err == nil {
					n++
					continue
				}
				select {
				case <-done:
					// Producers are gone and Shutdown has been called;
					// drain whatever is left, then stop.
					for {
						if _, err := q.Dequeue(); err != nil {
							consumed[i] = n
							consElapsed[i] = time.Since(start)
							return nil
						}
						n++
					}
				default:
				}
			}
		})
	}
	_ = cg.Wait()

	for _, v := range consumed {
		consumedTotal += v
	}

	summary := queue.Summary{
		Items:        c.items,
		GrowthPolicy: c.growthPolicy,
		Attempts:     c.attempts,
		Producers:    queue.WorkerStats{Count: c.producers, Elapsed: maxDuration(prodElapsed)},
		Consumers:    queue.WorkerStats{Count: c.consumers, Elapsed: maxDuration(consElapsed), Successes: consumedTotal},
		Capacity:     maxInt(capacity, 0),
		BlockSize:    c.blockSize,
		MaxCapacity:  maxInt(capacity, 0),
		ControlSumOK: consumedTotal == c.items,
	}
	return summary, nil
}

func maxDuration(ds []time.Duration) time.Duration {
	var m time.Duration
	for _, d := range ds {
		if d > m {
			m = d
		}
	}
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func levelFromFlag(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func main() {
	app := &cli.App{
		Name:  "queuestress",
		Usage: "load-test one of the queue variants",
		Flags: flags,
		Action: func(ctx *cli.Context) error {
			zerolog.SetGlobalLevel(levelFromFlag(cfg.logLevel))
			log.Info().
				Str("variant", cfg.variant).
				Int64("items", cfg.items).
				Int("producers", cfg.producers).
				Int("consumers", cfg.consumers).
				Msg("starting load test")

			start := time.Now()
			summary, err := runLoad(ctx.Context, cfg)
			if err != nil {
				return err
			}
			summary.TotalElapsed = time.Since(start)

			fmt.Println(summary.String())
			if !summary.ControlSumOK {
				return fmt.Errorf("control sum mismatch: produced %d, consumed %d", cfg.items, summary.Consumers.Successes)
			}
			return nil
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("queuestress failed")
	}
}
