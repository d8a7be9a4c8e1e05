package sink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throughput-bench/bench"
	"throughput-bench/dataset"
)

func testDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader("id,city,price\n1,sao paulo,10.5\n2,curitiba,20\n3,recife,\n"))
	require.NoError(t, err)
	return ds
}

func quietHarness(name string) *bench.Harness {
	h := bench.NewHarness(name, nil)
	h.Backoff = 0
	return h
}

type flakySink struct {
	*Memory
	insertErr  error
	prepareErr error
	cleared    int
}

func (f *flakySink) Prepare(ctx context.Context, cols []string, replace bool) error {
	if f.prepareErr != nil {
		return f.prepareErr
	}
	return f.Memory.Prepare(ctx, cols, replace)
}

func (f *flakySink) Insert(ctx context.Context, recs []dataset.Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Memory.Insert(ctx, recs)
}

func (f *flakySink) Clear(ctx context.Context) error {
	f.cleared++
	return f.Memory.Clear(ctx)
}

func TestSessionOneShotInsert(t *testing.T) {
	ds := testDataset(t)
	mem := NewMemory("Memory")
	results := bench.NewResultTable()
	s := &Session{Sink: mem, Results: results, NewHarness: quietHarness, KeepData: true}

	res, err := s.Run(context.Background(), InsertWorkload(mem, ds, true, 0), bench.Bounded(1), nil)
	require.NoError(t, err)

	assert.Equal(t, bench.Completed, res.State)
	assert.Equal(t, 1, res.TotalOperations)
	assert.Equal(t, 3, res.Rows())
	assert.Equal(t, "insert", res.Workload)

	n, _ := mem.Count(context.Background())
	assert.Equal(t, int64(3), n)

	got, ok := results.Get("Memory")
	require.True(t, ok)
	assert.Equal(t, res.RunID, got.RunID)
}

func TestSessionClearsAfterRun(t *testing.T) {
	ds := testDataset(t)
	f := &flakySink{Memory: NewMemory("Memory")}
	s := &Session{Sink: f, NewHarness: quietHarness}

	_, err := s.Run(context.Background(), InsertWorkload(f, ds, false, 0), bench.Bounded(4), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.cleared)
	n, _ := f.Count(context.Background())
	assert.Zero(t, n)
}

func TestSessionContinuousInsertUntilCancelled(t *testing.T) {
	ds := testDataset(t)
	mem := NewMemory("Memory")
	s := &Session{Sink: mem, NewHarness: quietHarness, KeepData: true}
	tok := bench.NewToken()
	time.AfterFunc(20*time.Millisecond, tok.Cancel)

	res, err := s.Run(context.Background(), InsertWorkload(mem, ds, true, 0), bench.Continuous(), tok)
	require.NoError(t, err)

	assert.Equal(t, bench.Cancelled, res.State)
	n, _ := mem.Count(context.Background())
	assert.Equal(t, int64(res.Rows()), n)
}

func TestSessionLookupSeedsOnce(t *testing.T) {
	ds := testDataset(t)
	mem := NewMemory("Memory")
	s := &Session{Sink: mem, NewHarness: quietHarness, KeepData: true}

	res, err := s.Run(context.Background(), LookupWorkload(mem, ds, 7, time.Second), bench.Bounded(1000), nil)
	require.NoError(t, err)

	assert.Equal(t, bench.Completed, res.State)
	assert.Equal(t, 1000, res.TotalOperations)
	assert.Equal(t, 1000, res.Rows())
	n, _ := mem.Count(context.Background())
	assert.Equal(t, int64(ds.Len()), n)
}

func TestSessionSetupFailure(t *testing.T) {
	ds := testDataset(t)
	f := &flakySink{Memory: NewMemory("Memory"), prepareErr: errors.New("permission denied")}
	results := bench.NewResultTable()
	s := &Session{Sink: f, Results: results, NewHarness: quietHarness}

	_, err := s.Run(context.Background(), InsertWorkload(f, ds, true, 0), bench.Bounded(1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Zero(t, results.Len())
}

func TestSessionAbortsOnFailingSink(t *testing.T) {
	ds := testDataset(t)
	f := &flakySink{Memory: NewMemory("Memory"), insertErr: errors.New("broken pipe")}
	s := &Session{Sink: f, NewHarness: quietHarness}

	res, err := s.Run(context.Background(), InsertWorkload(f, ds, true, 0), bench.Continuous(), bench.NewToken())
	require.NoError(t, err)

	assert.Equal(t, bench.Aborted, res.State)
	assert.Zero(t, res.TotalOperations)
	assert.Equal(t, 3, res.Stats.Errors)
	assert.Equal(t, 1, f.cleared)
}

func TestOperationTimeout(t *testing.T) {
	op := withTimeout(context.Background(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, op(), context.DeadlineExceeded)
}

func TestMemoryClosed(t *testing.T) {
	mem := NewMemory("")
	assert.Equal(t, "Memory", mem.Name())
	require.NoError(t, mem.Close())
	assert.Error(t, mem.Ping(context.Background()))
	assert.Error(t, mem.Insert(context.Background(), nil))
}
