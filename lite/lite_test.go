package lite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throughput-bench/bench"
	"throughput-bench/dataset"
	"throughput-bench/sink"
)

func TestDSN(t *testing.T) {
	p := Pragma{BusyTimeout: 5000, JournalMode: "WAL", Synchronous: "NORMAL"}

	mattn := DSN("sqlite3", "bench.db", p)
	assert.True(t, strings.HasPrefix(mattn, "bench.db?"))
	assert.Contains(t, mattn, "_journal_mode=WAL")
	assert.Contains(t, mattn, "_busy_timeout=5000")

	modernc := DSN("sqlite", "bench.db", p)
	assert.Contains(t, modernc, "_pragma=journal_mode(WAL)")
	assert.Contains(t, modernc, "_pragma=synchronous(NORMAL)")

	assert.Equal(t, "bench.db", DSN("sqlite", "bench.db", Pragma{}))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("postgres", "x.db", "t", Pragma{})
	assert.ErrorContains(t, err, "unknown sqlite driver")
}

func openTemp(t *testing.T, pragma Pragma) sink.Sink {
	t.Helper()
	tbl, err := Open("sqlite", filepath.Join(t.TempDir(), "bench.db"), "olist_dataset", pragma)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

func orders(n int) *dataset.Dataset {
	ds := &dataset.Dataset{Columns: []string{"order_id", "city", "price"}}
	for i := 0; i < n; i++ {
		var price any = float64(i) + 0.5
		if i%10 == 0 {
			price = nil
		}
		ds.Records = append(ds.Records, dataset.Record{
			"order_id": fmt.Sprintf("o-%04d", i),
			"city":     []string{"sao paulo", "recife", "it's"}[i%3],
			"price":    price,
		})
	}
	return ds
}

func TestTableRoundTrip(t *testing.T) {
	ctx := context.Background()
	tbl := openTemp(t, Pragma{BusyTimeout: 5000})
	ds := orders(2500)

	require.NoError(t, tbl.Ping(ctx))
	require.NoError(t, tbl.Prepare(ctx, ds.Columns, true))
	require.NoError(t, tbl.Insert(ctx, ds.Batch()))

	n, err := tbl.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), n)

	assert.NoError(t, tbl.Lookup(ctx, "order_id", "o-0042"))
	assert.NoError(t, tbl.Lookup(ctx, "price", nil))
	assert.NoError(t, tbl.Lookup(ctx, "price", 3.5))
	assert.NoError(t, tbl.Lookup(ctx, "city", "it's"))
	assert.NoError(t, tbl.Lookup(ctx, "order_id", "missing"), "not found is not an error")

	require.NoError(t, tbl.Clear(ctx))
	n, err = tbl.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPrepareWithoutReplaceClearsRows(t *testing.T) {
	ctx := context.Background()
	tbl := openTemp(t, Pragma{WithMutex: true})
	ds := orders(5)

	require.NoError(t, tbl.Prepare(ctx, ds.Columns, true))
	require.NoError(t, tbl.Insert(ctx, ds.Batch()))
	require.NoError(t, tbl.Prepare(ctx, ds.Columns, false))

	n, err := tbl.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInsertBeforePrepare(t *testing.T) {
	tbl := openTemp(t, Pragma{})
	assert.Error(t, tbl.Insert(context.Background(), orders(1).Records))
}

func TestSessionAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	tbl := openTemp(t, Pragma{JournalMode: "WAL", Synchronous: "NORMAL"})
	ds := orders(200)

	s := &sink.Session{
		Sink: tbl,
		NewHarness: func(name string) *bench.Harness {
			h := bench.NewHarness(name, nil)
			h.Backoff = 0
			return h
		},
	}

	ins, err := s.Run(ctx, sink.InsertWorkload(tbl, ds, true, 0), bench.Bounded(3), nil)
	require.NoError(t, err)
	assert.Equal(t, bench.Completed, ins.State)
	assert.Equal(t, "SQLite", ins.SystemName)
	assert.Equal(t, 600, ins.Rows())

	q, err := s.Run(ctx, sink.LookupWorkload(tbl, ds, 1, 0), bench.Bounded(150), nil)
	require.NoError(t, err)
	assert.Equal(t, bench.Completed, q.State)
	assert.Equal(t, 150, q.TotalOperations)

	n, err := tbl.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "session clears the table")
}
