package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"throughput-bench/bench"
)

const cleanupTimeout = 30 * time.Second

// Session runs workloads against one sink: setup, timed run, cleanup,
// and records each result.
type Session struct {
	Sink    Sink
	Logger  *slog.Logger
	Results *bench.ResultTable

	// NewHarness builds the harness for a run. Defaults to bench.NewHarness.
	NewHarness func(name string) *bench.Harness
	// KeepData skips the cleanup after a run.
	KeepData bool
}

// Run prepares the sink for w, runs the harness and clears the sink
// afterwards. Setup and cleanup errors are returned; operation failures
// are reflected in the result state.
func (s *Session) Run(ctx context.Context, w Workload, mode bench.Mode, tok *bench.Token) (bench.RunResult, error) {
	log := s.logger().With(slog.String("sink", s.Sink.Name()), slog.String("workload", w.Name))

	if w.Setup != nil {
		log.Info("preparing sink")
		if err := w.Setup(ctx); err != nil {
			return bench.RunResult{}, fmt.Errorf("prepare %s for %s: %w", s.Sink.Name(), w.Name, err)
		}
	}

	h := s.harness()
	h.Workload = w.Name
	h.RowsPerOp = w.RowsPerOp

	log.Info("running benchmark", slog.String("mode", mode.String()))
	res := h.Run(w.Op(ctx), mode, tok)
	log.Info("benchmark finished",
		slog.String("state", res.State.String()),
		slog.Int("operations", res.TotalOperations),
		slog.Duration("elapsed", res.Elapsed),
		slog.Float64("ops_per_sec", res.Throughput()),
	)

	if s.Results != nil {
		s.Results.Record(res)
	}

	if !s.KeepData {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := s.Sink.Clear(cctx); err != nil {
			return res, fmt.Errorf("clean up %s: %w", s.Sink.Name(), err)
		}
		log.Info("sink cleared")
	}
	return res, nil
}

func (s *Session) harness() *bench.Harness {
	if s.NewHarness != nil {
		return s.NewHarness(s.Sink.Name())
	}
	return bench.NewHarness(s.Sink.Name(), nil)
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
