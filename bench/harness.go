package bench

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxFailures   = 3
	DefaultProgressEvery = 100
	DefaultBackoff       = time.Second
	DefaultMaxSamples    = 1_000_000
)

// Harness runs one Operation repeatedly and measures throughput.
//
// It never touches a sink itself: all sink access happens inside the
// Operation. Exactly one Operation call is outstanding at a time and the
// token is only observed between calls.
type Harness struct {
	Name      string
	Workload  string
	RowsPerOp int

	Reporter Reporter
	Observer Observer

	// Backoff is the pause after a failed attempt that did not abort the run.
	Backoff time.Duration
	// MaxFailures consecutive failures abort the run.
	MaxFailures int
	// ProgressEvery successful operations produce one progress line.
	// Zero means DefaultProgressEvery.
	ProgressEvery int
	// MaxSamples caps the latency samples kept for Stats.
	MaxSamples int

	now   func() time.Time
	sleep func(time.Duration)
}

// NewHarness returns a harness with the default failure and progress policy.
func NewHarness(name string, r Reporter) *Harness {
	return &Harness{
		Name:          name,
		Reporter:      r,
		Backoff:       DefaultBackoff,
		MaxFailures:   DefaultMaxFailures,
		ProgressEvery: DefaultProgressEvery,
		MaxSamples:    DefaultMaxSamples,
	}
}

// Run executes op until mode is satisfied, the token is cancelled or
// MaxFailures consecutive attempts fail. It never returns an error:
// failures are reported and reflected in the returned state.
func (h *Harness) Run(op Operation, mode Mode, tok *Token) RunResult {
	rep := h.Reporter
	if rep == nil {
		rep = nopReporter{}
	}
	maxFailures := h.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	every := h.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}
	clock := h.now
	if clock == nil {
		clock = time.Now
	}
	sleep := h.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	res := RunResult{
		RunID:      uuid.NewString(),
		SystemName: h.Name,
		Workload:   h.Workload,
		RowsPerOp:  h.RowsPerOp,
		State:      Running,
	}
	samples := newSampler(h.MaxSamples)
	errCount := 0
	failures := 0

	rep.Report(fmt.Sprintf("starting %s run", describe(h.Workload, mode)))
	start := clock()

	for {
		if tok.Cancelled() {
			res.State = Cancelled
			break
		}
		if !mode.IsContinuous() && res.TotalOperations >= mode.Limit() {
			res.State = Completed
			break
		}

		qStart := clock()
		err := call(op)
		d := clock().Sub(qStart)
		if h.Observer != nil {
			h.Observer.Observe(h.Name, d, err)
		}

		if err == nil {
			samples.add(QueryResult{At: qStart, Duration: d})
			res.TotalOperations++
			failures = 0
			if res.TotalOperations%every == 0 {
				rep.Report(fmt.Sprintf("%d operations in %.2fs",
					res.TotalOperations, clock().Sub(start).Seconds()))
			}
			continue
		}

		samples.add(QueryResult{At: qStart, Duration: d, Err: err})
		errCount++
		failures++
		rep.Report(fmt.Sprintf("error performing operation: %v", err))
		if failures >= maxFailures {
			rep.Report(fmt.Sprintf("%d consecutive failures, aborting run", failures))
			res.State = Aborted
			break
		}
		sleep(h.Backoff)
	}

	res.Elapsed = clock().Sub(start)
	res.Stats = ComputeStats(samples.results())
	res.Stats.Errors = errCount

	rep.Report(fmt.Sprintf("%s: %d operations in %.2fs (%.2f ops/s)",
		res.State, res.TotalOperations, res.ElapsedSeconds(), res.Throughput()))
	return res
}

// call shields the harness from panicking operations.
func call(op Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &OperationFailure{Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return Fail(op())
}

func describe(workload string, mode Mode) string {
	if workload == "" {
		return mode.String()
	}
	return workload + " " + mode.String()
}
