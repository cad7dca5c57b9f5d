package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/VictoriaMetrics/metrics"
	"github.com/urfave/cli/v2"
	"reduction.dev/refptr/logging"
	"reduction.dev/refptr/stress"
	"reduction.dev/refptr/telemetry"
)

func main() {
	defaults := stress.DefaultConfig()
	app := &cli.App{
		Name:  "refstress",
		Usage: "Check that shared objects are destroyed exactly once under concurrent drops",
		Commands: []*cli.Command{{
			Name:  "run",
			Usage: "Run stress trials",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: defaults.Workers,
					Usage: "goroutines sharing each object",
				},
				&cli.IntFlag{
					Name:  "trials",
					Value: defaults.Trials,
					Usage: "number of objects to share and drop",
				},
				&cli.IntFlag{
					Name:  "copies",
					Value: defaults.CopiesPerWorker,
					Usage: "extra refs each worker clones and drops",
				},
				&cli.StringFlag{
					Name:  "shape",
					Value: string(defaults.Shape),
					Usage: "how objects count references: embedded or foreign",
				},
				&cli.StringFlag{
					Name:  "metrics-addr",
					Usage: "serve Prometheus metrics on this address while running",
				},
				&cli.BoolFlag{
					Name:  "print-metrics",
					Usage: "write the run's counters to stdout when done",
				},
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
					Usage: "debug, info, warn or error",
				},
			},
			Action: func(ctx *cli.Context) error {
				level, err := logging.ParseLevel(ctx.String("log-level"))
				if err != nil {
					return err
				}
				logging.SetLevel(level)
				slog.SetDefault(slog.New(logging.NewTextHandler()))

				shape, err := stress.ParseShape(ctx.String("shape"))
				if err != nil {
					return err
				}
				return runStress(ctx.Context, stress.Config{
					Workers:         ctx.Int("workers"),
					Trials:          ctx.Int("trials"),
					CopiesPerWorker: ctx.Int("copies"),
					Shape:           shape,
				}, ctx.String("metrics-addr"), ctx.Bool("print-metrics"))
			},
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runStress(ctx context.Context, cfg stress.Config, metricsAddr string, printMetrics bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if metricsAddr != "" {
		lis, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("listen for metrics: %w", err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", telemetry.Handler())
		srv := &http.Server{Handler: logging.NewHTTPHandler(mux, slog.Default())}
		go func() {
			if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
		defer srv.Close()
		slog.Info("serving metrics", "addr", lis.Addr().String())
	}

	result, err := stress.Run(ctx, cfg)
	if err != nil {
		return err
	}
	if printMetrics {
		metrics.WritePrometheus(os.Stdout, false)
	}

	fmt.Printf("run %s: %d trials, %d failures in %s\n", result.RunID, result.Trials, result.Failures, result.Duration)
	if result.Failures > 0 {
		return fmt.Errorf("%d of %d trials failed", result.Failures, result.Trials)
	}
	return nil
}
