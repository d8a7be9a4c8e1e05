package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"throughput-bench/bench"
	"throughput-bench/dataset"
	"throughput-bench/sink"
	"throughput-bench/tui"
)

type workloadFunc func(s sink.Sink, ds *dataset.Dataset) sink.Workload

// runFlags select the mode of insert and query runs.
type runFlags struct {
	count      int
	continuous bool
	duration   time.Duration
}

func (f *runFlags) register(cmd *cobra.Command, defaultCount int) {
	cmd.Flags().IntVar(&f.count, "count", defaultCount, "Successful operations per run")
	cmd.Flags().BoolVar(&f.continuous, "continuous", false, "Run until interrupted")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "Run continuously for this long")
}

func (f runFlags) mode() (bench.Mode, error) {
	if f.continuous || f.duration > 0 {
		return bench.Continuous(), nil
	}
	if f.count < 1 {
		return bench.Mode{}, fmt.Errorf("--count must be at least 1")
	}
	return bench.Bounded(f.count), nil
}

func (a *app) insertCommand() *cobra.Command {
	var rf runFlags
	var replace bool

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert the whole dataset per operation",
		Long: `Each operation inserts every record of the dataset in one batch.
The default --count 1 is a one-shot bulk load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := rf.mode()
			if err != nil {
				return err
			}
			return a.benchmark(cmd.Context(), mode, rf.duration, func(s sink.Sink, ds *dataset.Dataset) sink.Workload {
				return sink.InsertWorkload(s, ds, replace, a.cfg.Bench.OpTimeout)
			})
		},
	}
	rf.register(cmd, 1)
	cmd.Flags().BoolVar(&replace, "replace", true, "Drop and recreate the target before the run")
	return cmd
}

func (a *app) queryCommand() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Look up random records by a random field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := rf.mode()
			if err != nil {
				return err
			}
			seed := a.lookupSeed()
			a.logger.Debug("lookup seed", slog.Uint64("seed", seed))
			return a.benchmark(cmd.Context(), mode, rf.duration, func(s sink.Sink, ds *dataset.Dataset) sink.Workload {
				return sink.LookupWorkload(s, ds, seed, a.cfg.Bench.OpTimeout)
			})
		},
	}
	rf.register(cmd, 1000)
	return cmd
}

func (a *app) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the connection to every selected sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, name := range a.cfg.Bench.Sinks {
				d, err := a.ping(cmd.Context(), name)
				if err != nil {
					failed++
					fmt.Fprintf(a.out, "  ❌ %-12s %v\n", displayName(name), err)
					continue
				}
				fmt.Fprintf(a.out, "  ✅ %-12s %s\n", displayName(name), bench.FmtDur(d))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sinks unreachable", failed, len(a.cfg.Bench.Sinks))
			}
			return nil
		},
	}
}

func (a *app) ping(ctx context.Context, name string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s, err := openSink(ctx, name, a.cfg)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	start := time.Now()
	if err := s.Ping(ctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (a *app) dashboardCommand() *cobra.Command {
	var workload string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start and stop continuous runs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var build workloadFunc
			switch workload {
			case "insert":
				build = func(s sink.Sink, ds *dataset.Dataset) sink.Workload {
					return sink.InsertWorkload(s, ds, true, a.cfg.Bench.OpTimeout)
				}
			case "query":
				seed := a.lookupSeed()
				build = func(s sink.Sink, ds *dataset.Dataset) sink.Workload {
					return sink.LookupWorkload(s, ds, seed, a.cfg.Bench.OpTimeout)
				}
			default:
				return fmt.Errorf("unknown workload %q, want insert or query", workload)
			}

			ds, err := a.loadDataset()
			if err != nil {
				return err
			}

			// the alternate screen owns the terminal
			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			ctx := context.WithoutCancel(cmd.Context())

			var entries []tui.Entry
			for _, name := range a.cfg.Bench.Sinks {
				entries = append(entries, tui.Entry{
					Name: displayName(name),
					Run: func(tok *bench.Token, rep bench.Reporter) bench.RunResult {
						return a.dashboardRun(ctx, name, ds, build, quiet, tok, rep)
					},
				})
			}
			return tui.Run(entries, a.results)
		},
	}
	cmd.Flags().StringVar(&workload, "workload", "insert", "Workload to run: insert or query")
	return cmd
}

func (a *app) dashboardRun(ctx context.Context, name string, ds *dataset.Dataset, build workloadFunc,
	logger *slog.Logger, tok *bench.Token, rep bench.Reporter) bench.RunResult {
	s, err := openSink(ctx, name, a.cfg)
	if err != nil {
		rep.Report(fmt.Sprintf("connect failed: %v", err))
		return bench.RunResult{SystemName: displayName(name), State: bench.Aborted}
	}
	defer s.Close()

	sess := a.session(s, logger, func(string) bench.Reporter { return rep })
	w := build(s, ds)
	res, err := sess.Run(ctx, w, bench.Continuous(), tok)
	if err != nil {
		rep.Report(err.Error())
		if res.RunID == "" {
			res = bench.RunResult{SystemName: s.Name(), Workload: w.Name, State: bench.Aborted}
		}
	}
	a.collector.RecordRun(res)
	return res
}

// benchmark runs the workload against every selected sink and prints
// the results.
func (a *app) benchmark(ctx context.Context, mode bench.Mode, duration time.Duration, build workloadFunc) error {
	names := a.cfg.Bench.Sinks
	if len(names) == 0 {
		return errors.New("no sinks selected")
	}
	ds, err := a.loadDataset()
	if err != nil {
		return err
	}
	if ds.Len() == 0 {
		return errors.New("dataset is empty")
	}

	var g errgroup.Group
	if !a.parallel {
		g.SetLimit(1)
	}
	final := make([]*bench.RunResult, len(names))
	for i, name := range names {
		g.Go(func() error {
			res, err := a.benchmarkSink(ctx, name, ds, mode, duration, build)
			if err != nil {
				a.logger.Error("benchmark failed", slog.String("sink", name), slog.Any("error", err))
			}
			if res.SystemName != "" {
				final[i] = &res
			}
			return err
		})
	}
	runErr := g.Wait()

	var results []bench.RunResult
	aborted := 0
	for _, r := range final {
		if r == nil {
			continue
		}
		results = append(results, *r)
		if r.State == bench.Aborted {
			aborted++
		}
	}
	if err := a.print(results); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if aborted > 0 {
		return fmt.Errorf("%d of %d runs aborted", aborted, len(results))
	}
	return nil
}

func (a *app) benchmarkSink(ctx context.Context, name string, ds *dataset.Dataset, mode bench.Mode,
	duration time.Duration, build workloadFunc) (bench.RunResult, error) {
	logger := a.logger.With(slog.String("sink", displayName(name)))

	s, err := openSink(ctx, name, a.cfg)
	if err != nil {
		return bench.RunResult{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer s.Close()

	sess := a.session(s, a.logger, a.progressReporter)
	// in-flight operations finish; the token stops the run
	opCtx := context.WithoutCancel(ctx)

	var runErr error
	res := bench.RunMultiple(a.progress(), a.runs, s.Name(), func(run int) bench.RunResult {
		tok, release := runToken(ctx)
		defer release()

		w, disarm := timed(build(s, ds), duration, tok)
		defer disarm()

		r, err := sess.Run(opCtx, w, mode, tok)
		if err != nil {
			runErr = err
			logger.Error("run failed", slog.Int("run", run+1), slog.Any("error", err))
			if r.RunID == "" {
				r = bench.RunResult{SystemName: s.Name(), Workload: w.Name, State: bench.Aborted}
			}
		}
		a.collector.RecordRun(r)
		return r
	})
	a.results.Record(res)
	return res, runErr
}

// runToken returns a token cancelled when ctx is done.
func runToken(ctx context.Context) (*bench.Token, func() bool) {
	tok := bench.NewToken()
	if ctx.Err() != nil {
		tok.Cancel()
	}
	return tok, context.AfterFunc(ctx, tok.Cancel)
}

// timed cancels tok d after the workload's setup has finished.
func timed(w sink.Workload, d time.Duration, tok *bench.Token) (sink.Workload, func()) {
	if d <= 0 {
		return w, func() {}
	}
	var timer *time.Timer
	op := w.Op
	w.Op = func(ctx context.Context) bench.Operation {
		timer = time.AfterFunc(d, tok.Cancel)
		return op(ctx)
	}
	return w, func() {
		if timer != nil {
			timer.Stop()
		}
	}
}

func (a *app) print(results []bench.RunResult) error {
	if a.asJSON {
		return bench.WriteJSON(a.out, results)
	}
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		bench.PrintResult(a.out, r)
	}
	if len(results) == 2 {
		bench.PrintComparison(a.out, results[0], results[1])
	}
	fmt.Fprintln(a.out)
	return bench.WriteTable(a.out, results)
}
