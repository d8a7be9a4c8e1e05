package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"throughput-bench/bench"
	"throughput-bench/config"
	"throughput-bench/dataset"
	"throughput-bench/metrics"
	"throughput-bench/sink"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// a second interrupt kills the process
	context.AfterFunc(ctx, stop)

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	sinks       []string
	csv         string
	synthetic   int
	seed        uint64
	runs        int
	parallel    bool
	asJSON      bool
	keep        bool
	envFile     string
	metricsAddr string
	logLevel    string

	cfg       *config.Config
	logger    *slog.Logger
	collector *metrics.Collector
	results   *bench.ResultTable
}

func newRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, results: bench.NewResultTable()}

	root := &cobra.Command{
		Use:           "throughput-bench",
		Short:         "Measure insert and lookup throughput of databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	f := root.PersistentFlags()
	f.StringSliceVar(&a.sinks, "sinks", nil, "Sinks to benchmark: postgres, mysql, sqlite, sqlserver, mongo, memory (default from BENCH_SINKS)")
	f.StringVar(&a.csv, "csv", "", "Dataset CSV file (default from DATASET_CSV)")
	f.IntVar(&a.synthetic, "synthetic", 0, "Generate N synthetic records instead of reading the CSV")
	f.Uint64Var(&a.seed, "seed", 0, "Seed for lookup selection, 0 for random")
	f.IntVar(&a.runs, "runs", 1, "Repeat each benchmark and report the median")
	f.BoolVar(&a.parallel, "parallel", false, "Benchmark all sinks at the same time")
	f.BoolVar(&a.asJSON, "json", false, "Print results as JSON")
	f.BoolVar(&a.keep, "keep", false, "Keep benchmark data after a run")
	f.StringVar(&a.envFile, "env-file", ".env", "Environment file to load")
	f.StringVar(&a.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default from METRICS_ADDR)")
	f.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")

	root.AddCommand(
		a.insertCommand(),
		a.queryCommand(),
		a.pingCommand(),
		a.dashboardCommand(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("sinks") {
		cfg.Bench.Sinks = a.sinks
	}
	if flags.Changed("csv") {
		cfg.Dataset.CSV = a.csv
	}
	if flags.Changed("synthetic") {
		cfg.Dataset.Synthetic = a.synthetic
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = a.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if a.runs < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(a.logger)

	a.collector = metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		go func() {
			a.logger.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
			if err := a.collector.Serve(cmd.Context(), cfg.MetricsAddr); err != nil {
				a.logger.Error("metrics server", slog.Any("error", err))
			}
		}()
	}
	return nil
}

func (a *app) loadDataset() (*dataset.Dataset, error) {
	if n := a.cfg.Dataset.Synthetic; n > 0 {
		a.logger.Info("generating synthetic dataset", slog.Int("records", n))
		return dataset.Synthetic(n)
	}
	a.logger.Info("loading dataset", slog.String("path", a.cfg.Dataset.CSV))
	ds, err := dataset.LoadCSV(a.cfg.Dataset.CSV)
	if err != nil {
		return nil, err
	}
	a.logger.Info("dataset loaded", slog.Int("records", ds.Len()), slog.Int("columns", len(ds.Columns)))
	return ds, nil
}

func (a *app) lookupSeed() uint64 {
	if a.seed != 0 {
		return a.seed
	}
	return uint64(time.Now().UnixNano())
}

// harnessFactory builds harnesses with the configured policy, reporting to rep.
func (a *app) harnessFactory(rep func(system string) bench.Reporter) func(string) *bench.Harness {
	return func(name string) *bench.Harness {
		h := bench.NewHarness(name, rep(name))
		h.Backoff = a.cfg.Bench.Backoff
		h.MaxFailures = a.cfg.Bench.MaxFailures
		h.ProgressEvery = a.cfg.Bench.ProgressEvery
		h.Observer = a.collector
		return h
	}
}

func (a *app) session(s sink.Sink, logger *slog.Logger, rep func(system string) bench.Reporter) *sink.Session {
	return &sink.Session{
		Sink:       s,
		Logger:     logger,
		Results:    a.results,
		NewHarness: a.harnessFactory(rep),
		KeepData:   a.keep,
	}
}

// progress is where run output goes; stdout is kept clean for --json.
func (a *app) progress() io.Writer {
	if a.asJSON {
		return a.errOut
	}
	return a.out
}

func (a *app) progressReporter(system string) bench.Reporter {
	return bench.NewWriterReporter(a.progress(), system)
}
