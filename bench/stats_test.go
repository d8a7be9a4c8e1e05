package bench

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	var results []QueryResult
	for i := 1; i <= 100; i++ {
		results = append(results, QueryResult{Duration: time.Duration(i) * time.Millisecond})
	}
	results = append(results, QueryResult{Err: errors.New("x")})

	s := ComputeStats(results)

	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, time.Millisecond, s.LatencyMin)
	assert.Equal(t, 100*time.Millisecond, s.LatencyMax)
	assert.Equal(t, 50*time.Millisecond, s.LatencyP50)
	assert.Equal(t, 95*time.Millisecond, s.LatencyP95)
	assert.Equal(t, 99*time.Millisecond, s.LatencyP99)
	assert.Equal(t, 50500*time.Microsecond, s.LatencyAvg)
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestSamplerCapsReservoir(t *testing.T) {
	s := newSampler(10)
	for i := 0; i < 1000; i++ {
		s.add(QueryResult{Duration: time.Duration(i)})
	}
	assert.Len(t, s.results(), 10)
	assert.Equal(t, 1000, s.seen)
}

func result(id string, ops int, elapsed time.Duration) RunResult {
	return RunResult{RunID: id, SystemName: id, TotalOperations: ops, Elapsed: elapsed, State: Completed}
}

func TestMedianAndSteadyState(t *testing.T) {
	runs := []RunResult{
		result("a", 100, time.Second),
		result("b", 102, time.Second),
		result("c", 98, time.Second),
	}

	assert.Equal(t, "a", MedianResult(runs).RunID)
	assert.Equal(t, "a", runs[0].RunID, "input order untouched")

	steady, dev := SteadyState(runs, 0.05)
	assert.True(t, steady)
	assert.InDelta(t, 0.02, dev, 1e-9)

	runs = append(runs, result("d", 200, time.Second))
	steady, _ = SteadyState(runs, 0.05)
	assert.False(t, steady)
}

func TestRunMultiple(t *testing.T) {
	Cooldown = 0
	defer func() { Cooldown = 3 * time.Second }()

	var buf bytes.Buffer
	tps := []int{100, 300, 200}
	got := RunMultiple(&buf, 3, "insert", func(run int) RunResult {
		return result(string(rune('a'+run)), tps[run], time.Second)
	})

	assert.Equal(t, "c", got.RunID)
	assert.Contains(t, buf.String(), "3-RUN BENCHMARK")
	assert.Contains(t, buf.String(), "ALL RUNS SUMMARY")
}

func TestRunMultipleStopsAfterAbort(t *testing.T) {
	Cooldown = 0
	defer func() { Cooldown = 3 * time.Second }()

	calls := 0
	got := RunMultiple(&bytes.Buffer{}, 5, "query", func(run int) RunResult {
		calls++
		r := result("x", 0, time.Second)
		r.State = Aborted
		return r
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, Aborted, got.State)
}

func TestResultTableReplacesInPlace(t *testing.T) {
	tbl := NewResultTable()
	tbl.Record(result("SQL Server", 10, time.Second))
	tbl.Record(result("MongoDB", 20, time.Second))
	tbl.Record(result("SQL Server", 30, time.Second))

	rs := tbl.Results()
	require.Len(t, rs, 2)
	assert.Equal(t, "SQL Server", rs[0].SystemName)
	assert.Equal(t, 30, rs[0].TotalOperations)
	assert.Equal(t, "MongoDB", rs[1].SystemName)

	tbl.Clear()
	assert.Zero(t, tbl.Len())
}

func TestWriteTableAndJSON(t *testing.T) {
	r := result("PostgreSQL", 2, 2*time.Second)
	r.RowsPerOp = 500
	r.Workload = "insert"

	var table bytes.Buffer
	require.NoError(t, WriteTable(&table, []RunResult{r}))
	assert.Contains(t, table.String(), "PostgreSQL")
	assert.Contains(t, table.String(), "500.00")

	assert.Error(t, WriteTable(&table, nil))

	var js bytes.Buffer
	require.NoError(t, WriteJSON(&js, []RunResult{r}))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "PostgreSQL", decoded[0]["system"])
	assert.Equal(t, "completed", decoded[0]["state"])
	assert.InDelta(t, 1.0, decoded[0]["throughput"], 1e-9)
	assert.InDelta(t, 500.0, decoded[0]["rows_per_second"], 1e-9)
}

func TestFmtDur(t *testing.T) {
	assert.Equal(t, "250µs", FmtDur(250*time.Microsecond))
	assert.Equal(t, "1.50ms", FmtDur(1500*time.Microsecond))
}
