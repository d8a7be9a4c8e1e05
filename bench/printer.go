package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

func PrintResult(w io.Writer, r RunResult) {
	label := r.SystemName
	if r.Workload != "" {
		label += " — " + r.Workload
	}
	fmt.Fprintf(w, "\n┌─────────────────────────────────────────┐\n")
	fmt.Fprintf(w, "│  %-39s│\n", label)
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  State:        %-24s│\n", r.State)
	fmt.Fprintf(w, "│  Operations:   %-24d│\n", r.TotalOperations)
	fmt.Fprintf(w, "│  Rows:         %-24d│\n", r.Rows())
	fmt.Fprintf(w, "│  Errors:       %-24d│\n", r.Stats.Errors)
	fmt.Fprintf(w, "│  Duration:     %-24s│\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "│  Ops/s:        %-24.1f│\n", r.Throughput())
	fmt.Fprintf(w, "│  Rows/s:       %-24.1f│\n", r.RowsPerSecond())
	fmt.Fprintf(w, "├─────────────────────────────────────────┤\n")
	fmt.Fprintf(w, "│  Latency avg:  %-24s│\n", FmtDur(r.Stats.LatencyAvg))
	fmt.Fprintf(w, "│  Latency min:  %-24s│\n", FmtDur(r.Stats.LatencyMin))
	fmt.Fprintf(w, "│  Latency max:  %-24s│\n", FmtDur(r.Stats.LatencyMax))
	fmt.Fprintf(w, "│  Latency p50:  %-24s│\n", FmtDur(r.Stats.LatencyP50))
	fmt.Fprintf(w, "│  Latency p95:  %-24s│\n", FmtDur(r.Stats.LatencyP95))
	fmt.Fprintf(w, "│  Latency p99:  %-24s│\n", FmtDur(r.Stats.LatencyP99))
	fmt.Fprintf(w, "└─────────────────────────────────────────┘\n")
}

// PrintComparison puts two sinks side by side, b relative to a.
func PrintComparison(w io.Writer, a, b RunResult) {
	ratio := 0.0
	if a.RowsPerSecond() > 0 {
		ratio = b.RowsPerSecond() / a.RowsPerSecond()
	}

	fmt.Fprintf(w, "\n╔═════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  SINK COMPARISON                                           ║\n")
	fmt.Fprintf(w, "╠═══════════════════╦════════════════╦════════════════════════╣\n")
	fmt.Fprintf(w, "║  Metric           ║  %-13s ║  %-21s ║\n", trunc(a.SystemName, 13), trunc(b.SystemName, 21))
	fmt.Fprintf(w, "╠═══════════════════╬════════════════╬════════════════════════╣\n")
	fmt.Fprintf(w, "║  Ops/s            ║  %-13.1f ║  %-21.1f ║\n", a.Throughput(), b.Throughput())
	fmt.Fprintf(w, "║  Rows/s           ║  %-13.1f ║  %-21.1f ║\n", a.RowsPerSecond(), b.RowsPerSecond())
	fmt.Fprintf(w, "║  Latency p50      ║  %-13s ║  %-21s ║\n", FmtDur(a.Stats.LatencyP50), FmtDur(b.Stats.LatencyP50))
	fmt.Fprintf(w, "║  Latency p95      ║  %-13s ║  %-21s ║\n", FmtDur(a.Stats.LatencyP95), FmtDur(b.Stats.LatencyP95))
	fmt.Fprintf(w, "║  Latency p99      ║  %-13s ║  %-21s ║\n", FmtDur(a.Stats.LatencyP99), FmtDur(b.Stats.LatencyP99))
	fmt.Fprintf(w, "╠═══════════════════╩════════════════╩════════════════════════╣\n")
	fmt.Fprintf(w, "║  Relative rows/s:       %-35s ║\n", fmt.Sprintf("%.2fx", ratio))
	fmt.Fprintf(w, "╚═════════════════════════════════════════════════════════════╝\n")
}

// WriteTable renders one row per result.
func WriteTable(w io.Writer, results []RunResult) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	table := tablewriter.NewWriter(w)
	table.Header("System", "Workload", "Operations", "Rows", "Time (s)", "Ops/s", "Rows/s", "State")
	for _, r := range results {
		err := table.Append(
			r.SystemName,
			r.Workload,
			fmt.Sprintf("%d", r.TotalOperations),
			fmt.Sprintf("%d", r.Rows()),
			fmt.Sprintf("%.2f", r.ElapsedSeconds()),
			fmt.Sprintf("%.2f", r.Throughput()),
			fmt.Sprintf("%.2f", r.RowsPerSecond()),
			r.State.String(),
		)
		if err != nil {
			return fmt.Errorf("append row %s: %w", r.SystemName, err)
		}
	}
	return table.Render()
}

type jsonResult struct {
	RunResult
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Rows           int     `json:"rows"`
	Throughput     float64 `json:"throughput"`
	RowsPerSecond  float64 `json:"rows_per_second"`
}

// WriteJSON writes results as indented JSON, derived rates included.
func WriteJSON(w io.Writer, results []RunResult) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		out = append(out, jsonResult{
			RunResult:      r,
			ElapsedSeconds: r.ElapsedSeconds(),
			Rows:           r.Rows(),
			Throughput:     r.Throughput(),
			RowsPerSecond:  r.RowsPerSecond(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func FmtDur(d time.Duration) string {
	us := float64(d.Microseconds())
	if us < 1000 {
		return fmt.Sprintf("%.0fµs", us)
	}
	return fmt.Sprintf("%.2fms", us/1000)
}

func trunc(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
