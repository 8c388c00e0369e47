package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"loadprobe/internal/runner"
	"loadprobe/internal/stats"
	"loadprobe/internal/tui/styles"
)

const rule = "======================================================================"

// WriteHeader prints the run configuration before anything is sent.
func WriteHeader(w io.Writer, cfg runner.Config, runID string) {
	fmt.Fprintf(w, "\n%s\n", styles.Active.Render("🚀 LOADPROBE LOAD TEST"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run ID     : %s\n", runID)
	fmt.Fprintf(w, "Target URL : %s\n", cfg.URL)
	fmt.Fprintf(w, "Concurrent : %d\n", cfg.Concurrency)
	fmt.Fprintf(w, "Total      : %d\n", cfg.Total)
	fmt.Fprintf(w, "Timeout    : %ds\n", cfg.TimeoutSec)
	if cfg.HTTP2 {
		fmt.Fprintln(w, "Transport  : HTTP/2")
	}
	if cfg.Insecure {
		fmt.Fprintln(w, "TLS verify : disabled")
	}
	fmt.Fprintf(w, "%s\n\n", rule)
}

// WriteConsole prints the final report. An empty run prints a single line.
func WriteConsole(w io.Writer, s stats.Summary) {
	if s.TotalRequests == 0 {
		fmt.Fprintf(w, "\n%s\n", styles.Subtle.Render("No results to display."))
		writeInterrupted(w, s)
		return
	}

	fmt.Fprintf(w, "\n%s\n", styles.Active.Render("📊 LOAD TEST RESULTS"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total requests     : %d\n", s.TotalRequests)
	fmt.Fprintf(w, "Successful (200 OK): %s\n", styles.Success.Render(fmt.Sprintf("%d (%.1f%%)", s.SuccessCount, s.SuccessRate)))

	failStyle := styles.Text
	if s.FailedCount > 0 {
		failStyle = styles.Error
	}
	fmt.Fprintf(w, "Failed/Timeout     : %s\n", failStyle.Render(fmt.Sprintf("%d (%.1f%%)", s.FailedCount, s.FailureRate())))
	fmt.Fprintf(w, "Total elapsed time : %.2fs\n", s.Elapsed.Seconds())
	fmt.Fprintf(w, "Throughput         : %.2f req/s\n", s.RequestsPerSecond)

	fmt.Fprintf(w, "\n⏱️  RESPONSE TIMES (ms)\n")
	fmt.Fprintf(w, "   Average : %.1f\n", s.MeanMs)
	fmt.Fprintf(w, "   Median  : %.1f\n", s.MedianMs)
	fmt.Fprintf(w, "   Min     : %.1f\n", s.MinMs)
	fmt.Fprintf(w, "   Max     : %.1f\n", s.MaxMs)
	fmt.Fprintf(w, "   P95     : %.1f\n", s.P95Ms)
	fmt.Fprintf(w, "   P99     : %.1f\n", s.P99Ms)

	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "\n❌ ERROR BREAKDOWN\n")
		for _, e := range SortedErrors(s.Errors) {
			fmt.Fprintf(w, "   %s: %d\n", styles.Error.Render(e.Error), e.Count)
		}
	}
	fmt.Fprintln(w, rule)

	writeInterrupted(w, s)
}

func writeInterrupted(w io.Writer, s stats.Summary) {
	if s.Interrupted {
		fmt.Fprintf(w, "%s\n", styles.Warn.Render("⚠️  Test was interrupted. Results show completed requests only."))
	}
}

// ErrorCount is one line of the error breakdown.
type ErrorCount struct {
	Error string `json:"error"`
	Count int    `json:"count"`
}

// SortedErrors orders the breakdown by count, most frequent first, then
// by description.
func SortedErrors(errs map[string]int) []ErrorCount {
	out := make([]ErrorCount, 0, len(errs))
	for k, v := range errs {
		out = append(out, ErrorCount{Error: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Error < out[j].Error
	})
	return out
}

// ProgressLine renders the headless progress bar for one update.
func ProgressLine(p runner.Progress, elapsed time.Duration) string {
	pct := p.Fraction()
	return fmt.Sprintf("\rRunning load test: %s %d/%d (%.1f%%) | OK: %d | Err: %d (%.1f%%) | P99: %.1fms | %s",
		progressBar(pct, 20), p.Dispatched, p.Total, pct*100,
		p.Success, p.Fail, p.ErrorRate, p.P99Ms, elapsed.Round(100*time.Millisecond))
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}
