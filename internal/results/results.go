package results

import (
	"fmt"
	"sort"
	"time"
)

// Outcome is the record of one completed request attempt.
type Outcome struct {
	RequestID      int       `json:"request_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ResponseTimeMs float64   `json:"response_time_ms"`

	// StatusCode is 0 when no HTTP response was received.
	StatusCode int    `json:"status_code,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// HasStatus reports whether an HTTP response was received.
func (o Outcome) HasStatus() bool {
	return o.StatusCode != 0
}

// ErrorKey is the error-breakdown key of a failed outcome.
func (o Outcome) ErrorKey() string {
	if o.Error != "" {
		return o.Error
	}
	if o.HasStatus() {
		return StatusError(o.StatusCode)
	}
	return "HTTP unknown"
}

// StatusError is the error description for a non-200 response.
func StatusError(code int) string {
	return fmt.Sprintf("HTTP %d", code)
}

// Set is a run's outcomes in completion order.
type Set []Outcome

// SortByRequestID returns a copy ordered by request id.
func (s Set) SortByRequestID() Set {
	out := make(Set, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestID < out[j].RequestID
	})
	return out
}

// ResponseTimes returns the response time of every outcome, failed ones included.
func (s Set) ResponseTimes() []float64 {
	times := make([]float64, 0, len(s))
	for _, o := range s {
		times = append(times, o.ResponseTimeMs)
	}
	return times
}
