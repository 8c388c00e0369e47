package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"loadprobe/internal/runner"
	"loadprobe/internal/stats"
)

// Result is the JSON output format of a run.
type Result struct {
	RunID       string `json:"run_id"`
	Timestamp   string `json:"timestamp"`
	URL         string `json:"url"`
	Concurrency int    `json:"concurrency"`
	Requested   int    `json:"requested"`
	Interrupted bool   `json:"interrupted"`
	Aborted     string `json:"aborted,omitempty"`

	TotalRequests     int     `json:"total_requests"`
	SuccessCount      int     `json:"success_count"`
	FailedCount       int     `json:"failed_count"`
	SuccessRate       float64 `json:"success_rate"`
	DurationSeconds   float64 `json:"duration_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`

	ResponseTimeMs LatencyStats `json:"response_time_ms"`
	Errors         []ErrorCount `json:"errors,omitempty"`
}

// LatencyStats contains response time statistics in milliseconds
type LatencyStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// ToJSONResult converts a Summary to the JSON output format. runErr is the
// setup fault that aborted the run, if any.
func ToJSONResult(s stats.Summary, cfg runner.Config, runErr error) *Result {
	res := &Result{
		RunID:       s.RunID,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		URL:         cfg.URL,
		Concurrency: cfg.Concurrency,
		Requested:   cfg.Total,
		Interrupted: s.Interrupted,

		TotalRequests:     s.TotalRequests,
		SuccessCount:      s.SuccessCount,
		FailedCount:       s.FailedCount,
		SuccessRate:       s.SuccessRate,
		DurationSeconds:   s.Elapsed.Seconds(),
		RequestsPerSecond: s.RequestsPerSecond,

		ResponseTimeMs: LatencyStats{
			Mean:   s.MeanMs,
			Median: s.MedianMs,
			Min:    s.MinMs,
			Max:    s.MaxMs,
			P95:    s.P95Ms,
			P99:    s.P99Ms,
		},
		Errors: SortedErrors(s.Errors),
	}
	if runErr != nil {
		res.Aborted = runErr.Error()
	}
	return res
}

// WriteJSON writes the JSON report to w
func WriteJSON(w io.Writer, s stats.Summary, cfg runner.Config, runErr error) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToJSONResult(s, cfg, runErr)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
