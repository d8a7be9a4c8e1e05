package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throughput-bench/bench"
)

func TestObserve(t *testing.T) {
	c := NewCollector()

	c.Observe("SQLite", 2*time.Millisecond, nil)
	c.Observe("SQLite", 3*time.Millisecond, nil)
	c.Observe("SQLite", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("SQLite", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("SQLite", "failure")))
}

func TestRecordRun(t *testing.T) {
	c := NewCollector()

	c.RecordRun(bench.RunResult{SystemName: "MongoDB", Workload: "insert", State: bench.Aborted})
	c.RecordRun(bench.RunResult{
		SystemName:      "MongoDB",
		Workload:        "insert",
		State:           bench.Completed,
		TotalOperations: 50,
		Elapsed:         2 * time.Second,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("MongoDB", "aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("MongoDB", "completed")))
	assert.Equal(t, 25.0, testutil.ToFloat64(c.throughput.WithLabelValues("MongoDB", "insert")))
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	var _ bench.Observer = c
	c.Observe("MySQL", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `throughput_bench_operations_total{result="success",system="MySQL"} 1`)
	assert.Contains(t, string(body), "throughput_bench_operation_duration_seconds_bucket")
}
