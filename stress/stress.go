// Package stress drops Refs to a shared object from many goroutines at once
// and checks that the object is destroyed exactly once, after the last drop.
package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
	"reduction.dev/refptr/refs"
	"reduction.dev/refptr/refs/refstest"
	"reduction.dev/refptr/telemetry"
)

var (
	trialsRun    = metrics.NewCounter("refs_stress_trials_total")
	trialsFailed = metrics.NewCounter("refs_stress_trials_failed_total")
	holds        = metrics.NewCounter("refs_stress_holds_total")
	drops        = metrics.NewCounter("refs_stress_drops_total")
	destroys     = metrics.NewCounter("refs_stress_destroys_total")
)

// ErrDestroyedEarly is reported when a worker still holding a Ref sees its
// object destroyed.
var ErrDestroyedEarly = errors.New("object destroyed while referenced")

type Result struct {
	RunID    string
	Trials   int
	Failures int
	Duration time.Duration
}

// Run executes cfg.Trials trials and returns how many failed. It stops early
// with the context's error if ctx is canceled between trials.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid stress config: %w", err)
	}

	result := Result{RunID: ksuid.New().String()}
	log := slog.With("instanceID", "stress-"+result.RunID)
	log.Info("starting", "workers", cfg.Workers, "trials", cfg.Trials,
		"copies", cfg.CopiesPerWorker, "shape", cfg.Shape)

	start := time.Now()
	for i := range cfg.Trials {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		trialStart := time.Now()
		err := runTrial(cfg, newObject(cfg.Shape))
		telemetry.ObserveTrial(string(cfg.Shape), time.Since(trialStart), err == nil)
		trialsRun.Inc()
		result.Trials++
		if err != nil {
			trialsFailed.Inc()
			result.Failures++
			log.Warn("trial failed", "trial", i, "err", err)
		}
	}
	result.Duration = time.Since(start)

	log.Info("finished", "trials", result.Trials, "failures", result.Failures,
		"duration", result.Duration)
	return result, nil
}

func newObject(shape Shape) refstest.Instrumented {
	switch shape {
	case ShapeForeign:
		return refstest.NewForeign("stress")
	default:
		return refstest.NewTracked("stress")
	}
}

func runTrial(cfg Config, obj refstest.Instrumented) error {
	root := refs.New(obj)
	holds.Inc()

	handles := make([]refs.Ref[refstest.Instrumented], cfg.Workers)
	for i := range handles {
		handles[i] = root.Clone()
		holds.Inc()
	}

	// Workers own the only references once the gate opens
	root.Release()
	drops.Inc()

	gate := make(chan struct{})
	g := &errgroup.Group{}
	for i := range handles {
		h := &handles[i]
		g.Go(func() (err error) {
			// A ref taken or dropped after the object was released panics in
			// RefCount; count it as a failed trial.
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrDestroyedEarly, r)
				}
			}()
			defer drops.Inc()
			defer h.Release()

			<-gate
			for range cfg.CopiesPerWorker {
				c := h.Clone()
				holds.Inc()
				if obj.Destroyed() != 0 {
					c.Release()
					drops.Inc()
					return ErrDestroyedEarly
				}
				c.Release()
				drops.Inc()
			}
			if obj.Destroyed() != 0 {
				return ErrDestroyedEarly
			}
			return nil
		})
	}
	close(gate)
	err := g.Wait()

	destroyed := obj.Destroyed()
	destroys.Add(int(destroyed))
	if destroyed != 1 {
		err = errors.Join(err, fmt.Errorf("object destroyed %d times", destroyed))
	}
	return err
}
