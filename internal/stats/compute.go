package stats

import (
	"math"
	"sort"
	"time"

	"loadprobe/internal/results"
)

// Summary is the aggregate view of one run.
type Summary struct {
	RunID       string `json:"run_id,omitempty"`
	Interrupted bool   `json:"interrupted"`

	TotalRequests int     `json:"total_requests"`
	SuccessCount  int     `json:"success_count"`
	FailedCount   int     `json:"failed_count"`
	SuccessRate   float64 `json:"success_rate"`

	// Response times in milliseconds, over successes and failures alike.
	MeanMs   float64 `json:"mean_ms"`
	MedianMs float64 `json:"median_ms"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`

	Errors map[string]int `json:"errors"`

	Elapsed           time.Duration `json:"elapsed_ns"`
	RequestsPerSecond float64       `json:"requests_per_second"`
}

// Compute derives a Summary from a result set. It does not depend on the
// order of set.
func Compute(set results.Set) Summary {
	s := Summary{
		TotalRequests: len(set),
		Errors:        make(map[string]int),
	}

	for _, o := range set {
		if o.Success {
			s.SuccessCount++
			continue
		}
		s.Errors[o.ErrorKey()]++
	}
	s.FailedCount = s.TotalRequests - s.SuccessCount
	if s.TotalRequests > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalRequests) * 100
	}

	sorted := set.ResponseTimes()
	if len(sorted) == 0 {
		return s
	}
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	s.MeanMs = sum / float64(len(sorted))
	s.MedianMs = Median(sorted)
	s.MinMs = sorted[0]
	s.MaxMs = sorted[len(sorted)-1]
	s.P95Ms = Percentile(sorted, 0.95)
	s.P99Ms = Percentile(sorted, 0.99)

	return s
}

// WithElapsed sets the measured-phase duration and the derived throughput.
func (s Summary) WithElapsed(d time.Duration) Summary {
	s.Elapsed = d
	if d > 0 {
		s.RequestsPerSecond = float64(s.TotalRequests) / d.Seconds()
	}
	return s
}

// FailureRate is the complement of SuccessRate, 0 for an empty run.
func (s Summary) FailureRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return 100 - s.SuccessRate
}

// Percentile returns sorted[floor(p*n)] with the index clamped to n-1.
// No interpolation between ranks. sorted must be ascending; p is a
// fraction (0.95, not 95).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	i := int(math.Floor(p * float64(n)))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

// Median of an ascending slice; the mean of the two middle values when
// the length is even.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
