package bench

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"
)

func ComputeStats(results []QueryResult) Stats {
	var stats Stats

	var durations []time.Duration
	for _, r := range results {
		if r.Err != nil {
			stats.Errors++
			continue
		}
		durations = append(durations, r.Duration)
	}

	if len(durations) == 0 {
		return stats
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	stats.LatencyAvg = sum / time.Duration(len(durations))
	stats.LatencyMin = durations[0]
	stats.LatencyMax = durations[len(durations)-1]
	stats.LatencyP50 = pct(durations, 50)
	stats.LatencyP75 = pct(durations, 75)
	stats.LatencyP90 = pct(durations, 90)
	stats.LatencyP95 = pct(durations, 95)
	stats.LatencyP99 = pct(durations, 99)

	return stats
}

// MedianResult picks the run with the median throughput.
func MedianResult(runs []RunResult) RunResult {
	if len(runs) == 1 {
		return runs[0]
	}
	sorted := append([]RunResult(nil), runs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Throughput() < sorted[j].Throughput() })
	return sorted[len(sorted)/2]
}

// SteadyState checks if throughput variance across runs is within tolerance.
func SteadyState(runs []RunResult, tolerance float64) (bool, float64) {
	if len(runs) < 2 {
		return true, 0
	}
	var sum float64
	for _, r := range runs {
		sum += r.Throughput()
	}
	mean := sum / float64(len(runs))
	if mean == 0 {
		return false, 0
	}

	var maxDev float64
	for _, r := range runs {
		dev := math.Abs(r.Throughput()-mean) / mean
		if dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev <= tolerance, maxDev
}

func pct(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// sampler keeps a uniform reservoir of at most limit results.
type sampler struct {
	limit int
	seen  int
	buf   []QueryResult
}

func newSampler(limit int) *sampler {
	if limit <= 0 {
		limit = DefaultMaxSamples
	}
	return &sampler{limit: limit}
}

func (s *sampler) add(r QueryResult) {
	s.seen++
	if len(s.buf) < s.limit {
		s.buf = append(s.buf, r)
		return
	}
	if j := rand.IntN(s.seen); j < s.limit {
		s.buf[j] = r
	}
}

func (s *sampler) results() []QueryResult { return s.buf }
