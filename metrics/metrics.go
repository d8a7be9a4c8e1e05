// Package metrics exports benchmark operations as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"throughput-bench/bench"
)

// Collector records every harness operation and finished run.
type Collector struct {
	Registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	runs       *prometheus.CounterVec
	throughput *prometheus.GaugeVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		Registry: reg,
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throughput_bench_operations_total",
			Help: "Operations performed, by system and result",
		}, []string{"system", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "throughput_bench_operation_duration_seconds",
			Help:    "Operation latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"system"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "throughput_bench_runs_total",
			Help: "Finished runs, by system and final state",
		}, []string{"system", "state"}),
		throughput: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "throughput_bench_last_throughput",
			Help: "Operations per second of the last finished run",
		}, []string{"system", "workload"}),
	}
}

// Observe implements bench.Observer.
func (c *Collector) Observe(system string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.operations.WithLabelValues(system, result).Inc()
	c.duration.WithLabelValues(system).Observe(d.Seconds())
}

// RecordRun counts a finished run.
func (c *Collector) RecordRun(r bench.RunResult) {
	c.runs.WithLabelValues(r.SystemName, r.State.String()).Inc()
	c.throughput.WithLabelValues(r.SystemName, r.Workload).Set(r.Throughput())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
