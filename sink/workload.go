package sink

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"throughput-bench/bench"
	"throughput-bench/dataset"
)

// Workload is one kind of benchmarked work against a sink.
type Workload struct {
	Name      string
	RowsPerOp int
	// Setup runs once before timing starts.
	Setup func(ctx context.Context) error
	// Op builds the operation for a run; ctx bounds every call.
	Op func(ctx context.Context) bench.Operation
}

// InsertWorkload inserts the whole dataset as one batch per operation.
// Bounded(1) is a one-shot bulk load; Continuous keeps appending.
func InsertWorkload(s Sink, ds *dataset.Dataset, replace bool, timeout time.Duration) Workload {
	return Workload{
		Name:      "insert",
		RowsPerOp: ds.Len(),
		Setup: func(ctx context.Context) error {
			return s.Prepare(ctx, ds.Columns, replace)
		},
		Op: func(ctx context.Context) bench.Operation {
			return withTimeout(ctx, timeout, func(ctx context.Context) error {
				return s.Insert(ctx, ds.Batch())
			})
		},
	}
}

// LookupWorkload seeds the dataset once, then each operation looks up one
// record by a randomly chosen field and value.
func LookupWorkload(s Sink, ds *dataset.Dataset, seed uint64, timeout time.Duration) Workload {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return Workload{
		Name:      "query",
		RowsPerOp: 1,
		Setup: func(ctx context.Context) error {
			if err := s.Prepare(ctx, ds.Columns, true); err != nil {
				return err
			}
			if err := s.Insert(ctx, ds.Batch()); err != nil {
				return fmt.Errorf("seed %d records: %w", ds.Len(), err)
			}
			return nil
		},
		Op: func(ctx context.Context) bench.Operation {
			return withTimeout(ctx, timeout, func(ctx context.Context) error {
				field, value, err := ds.RandomField(rng)
				if err != nil {
					return err
				}
				return s.Lookup(ctx, field, value)
			})
		},
	}
}

func withTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) bench.Operation {
	return func() error {
		if timeout <= 0 {
			return fn(ctx)
		}
		opCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(opCtx)
	}
}
