package bench

import (
	"errors"
	"fmt"
	"time"
)

// Operation performs one unit of benchmarked work against a sink.
// A non-nil error counts as a failed attempt.
type Operation func() error

// OperationFailure is the only failure kind the harness knows about.
type OperationFailure struct {
	Cause error
}

func (f *OperationFailure) Error() string {
	if f.Cause == nil {
		return "operation failed"
	}
	return f.Cause.Error()
}

func (f *OperationFailure) Unwrap() error { return f.Cause }

// Fail wraps err as an OperationFailure. A nil err stays nil.
func Fail(err error) error {
	if err == nil {
		return nil
	}
	var f *OperationFailure
	if errors.As(err, &f) {
		return err
	}
	return &OperationFailure{Cause: err}
}

type modeKind int

const (
	continuous modeKind = iota
	bounded
)

// Mode selects when a run ends.
type Mode struct {
	kind  modeKind
	limit int
}

// Continuous runs until the cancellation token is set.
func Continuous() Mode { return Mode{kind: continuous} }

// Bounded runs until n operations have succeeded.
func Bounded(n int) Mode {
	if n < 0 {
		n = 0
	}
	return Mode{kind: bounded, limit: n}
}

func (m Mode) IsContinuous() bool { return m.kind == continuous }

// Limit is the success target of a bounded mode, 0 for continuous.
func (m Mode) Limit() int {
	if m.kind == continuous {
		return 0
	}
	return m.limit
}

func (m Mode) String() string {
	if m.kind == continuous {
		return "continuous"
	}
	return fmt.Sprintf("bounded(%d)", m.limit)
}

// State is the lifecycle of one harness invocation.
type State int

const (
	Idle State = iota
	Running
	Completed
	Aborted
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type QueryResult struct {
	At       time.Time
	Duration time.Duration
	Err      error
}

// Stats summarises per-operation latency over the successful operations of a run.
type Stats struct {
	Errors     int           `json:"errors"`
	LatencyAvg time.Duration `json:"latency_avg_ns"`
	LatencyMin time.Duration `json:"latency_min_ns"`
	LatencyMax time.Duration `json:"latency_max_ns"`
	LatencyP50 time.Duration `json:"latency_p50_ns"`
	LatencyP75 time.Duration `json:"latency_p75_ns"`
	LatencyP90 time.Duration `json:"latency_p90_ns"`
	LatencyP95 time.Duration `json:"latency_p95_ns"`
	LatencyP99 time.Duration `json:"latency_p99_ns"`
}

// RunResult is the immutable outcome of one harness invocation.
// Throughput is always derived from TotalOperations and Elapsed.
type RunResult struct {
	RunID           string        `json:"run_id"`
	SystemName      string        `json:"system"`
	Workload        string        `json:"workload,omitempty"`
	State           State         `json:"state"`
	TotalOperations int           `json:"total_operations"`
	RowsPerOp       int           `json:"rows_per_op"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	Stats           Stats         `json:"stats"`
}

func (r RunResult) ElapsedSeconds() float64 { return r.Elapsed.Seconds() }

// Throughput is successful operations per second, 0 when nothing elapsed.
func (r RunResult) Throughput() float64 {
	return perSecond(float64(r.TotalOperations), r.Elapsed)
}

// Rows is the number of records moved by the successful operations.
func (r RunResult) Rows() int {
	per := r.RowsPerOp
	if per <= 0 {
		per = 1
	}
	return r.TotalOperations * per
}

func (r RunResult) RowsPerSecond() float64 {
	return perSecond(float64(r.Rows()), r.Elapsed)
}

func perSecond(n float64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return n / d.Seconds()
}
