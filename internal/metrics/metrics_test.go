package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"loadprobe/internal/results"
)

func TestCollector_Observe(t *testing.T) {
	c := NewCollector("run-1")

	c.Observe(results.Outcome{StatusCode: 200, Success: true, ResponseTimeMs: 12})
	c.Observe(results.Outcome{StatusCode: 200, Success: true, ResponseTimeMs: 8})
	c.Observe(results.Outcome{StatusCode: 503, Error: "HTTP 503", ResponseTimeMs: 30})
	c.Observe(results.Outcome{Error: "connection refused", ResponseTimeMs: 1})
	c.ObserveBatch(4, 40*time.Millisecond)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("success", "200")); got != 2 {
		t.Errorf("Expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("failure", "503")); got != 1 {
		t.Errorf("Expected 1 x 503, got %v", got)
	}
	if got := testutil.ToFloat64(c.requests.WithLabelValues("failure", "none")); got != 1 {
		t.Errorf("Expected 1 transport failure, got %v", got)
	}
	if got := testutil.ToFloat64(c.batches); got != 1 {
		t.Errorf("Expected 1 batch, got %v", got)
	}
	if got := testutil.CollectAndCount(c.responseTime); got != 1 {
		t.Errorf("Expected one response time series, got %d", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("run-2")
	c.Observe(results.Outcome{StatusCode: 200, Success: true, ResponseTimeMs: 5})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`loadprobe_requests_total{code="200",outcome="success",run_id="run-2"} 1`,
		"loadprobe_response_time_seconds_count",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected %q in metrics output", want)
		}
	}
}
