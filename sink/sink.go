// Package sink defines the data-sink contract and the benchmark workloads
// that turn a sink into bench.Operations.
package sink

import (
	"context"

	"throughput-bench/dataset"
)

// Sink is a relational table or document collection being benchmarked.
type Sink interface {
	// Name is the system name results are keyed by.
	Name() string
	Ping(ctx context.Context) error
	// Prepare makes the target ready for columns. With replace the
	// target is dropped and recreated, otherwise existing rows are cleared.
	Prepare(ctx context.Context, columns []string, replace bool) error
	Insert(ctx context.Context, records []dataset.Record) error
	// Lookup fetches at most one row where field equals value.
	// Finding nothing is not an error.
	Lookup(ctx context.Context, field string, value any) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
