package bench

import (
	"fmt"
	"io"
	"time"
)

// Cooldown is the pause between consecutive runs of RunMultiple.
var Cooldown = 3 * time.Second

// RunMultiple executes runFn N times, checks steady-state, returns median.
// runFn receives the run index (0-based) and returns the result for that run.
func RunMultiple(w io.Writer, runs int, label string, runFn func(run int) RunResult) RunResult {
	if runs <= 1 {
		return runFn(0)
	}

	fmt.Fprintf(w, "\n╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  %d-RUN BENCHMARK: %-38s║\n", runs, label)
	fmt.Fprintf(w, "║  Methodology: median of %d runs, steady-state verified    ║\n", runs)
	fmt.Fprintf(w, "╚═══════════════════════════════════════════════════════════╝\n")

	allRuns := make([]RunResult, runs)

	for i := 0; i < runs; i++ {
		fmt.Fprintf(w, "\n── Run %d/%d ──\n", i+1, runs)
		allRuns[i] = runFn(i)

		fmt.Fprintf(w, "  Run %d: ops/s=%.1f  p50=%s  p95=%s  errors=%d  state=%s\n",
			i+1, allRuns[i].Throughput(),
			FmtDur(allRuns[i].Stats.LatencyP50),
			FmtDur(allRuns[i].Stats.LatencyP95),
			allRuns[i].Stats.Errors,
			allRuns[i].State)

		// An aborted run means the sink is gone; more runs would only repeat it.
		if allRuns[i].State == Aborted {
			fmt.Fprintf(w, "  ⚠️  run %d aborted, skipping remaining runs\n", i+1)
			allRuns = allRuns[:i+1]
			break
		}

		if i < runs-1 && Cooldown > 0 {
			fmt.Fprintf(w, "  Cooling down (%s)...", Cooldown)
			time.Sleep(Cooldown)
			fmt.Fprintln(w, " done")
		}
	}

	steady, maxDev := SteadyState(allRuns, 0.05)
	fmt.Fprintf(w, "\n── Steady-State Check ──\n")
	fmt.Fprintf(w, "  Max throughput deviation: %.1f%%\n", maxDev*100)
	if steady {
		fmt.Fprintln(w, "  ✅ PASSED (within ±5%)")
	} else {
		fmt.Fprintf(w, "  ⚠️  FAILED (%.1f%% > 5%%) — results still reported as median\n", maxDev*100)
	}

	median := MedianResult(allRuns)

	fmt.Fprintf(w, "\n╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  ALL RUNS SUMMARY                                        ║\n")
	fmt.Fprintf(w, "╠═════╦══════════╦══════════╦══════════╦═══════════════════╣\n")
	fmt.Fprintf(w, "║ Run ║  Ops/s   ║   p50    ║   p95    ║ Errors            ║\n")
	fmt.Fprintf(w, "╠═════╬══════════╬══════════╬══════════╬═══════════════════╣\n")
	for i, r := range allRuns {
		marker := "  "
		if r.RunID == median.RunID {
			marker = "→ "
		}
		fmt.Fprintf(w, "║ %s%d  ║ %8.1f ║ %8s ║ %8s ║ %-17d ║\n",
			marker, i+1, r.Throughput(), FmtDur(r.Stats.LatencyP50), FmtDur(r.Stats.LatencyP95), r.Stats.Errors)
	}
	fmt.Fprintf(w, "╚═════╩══════════╩══════════╩══════════╩═══════════════════╝\n")
	fmt.Fprintln(w, "  → = median (reported)")

	return median
}
