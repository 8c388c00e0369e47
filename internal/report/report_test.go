package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"loadprobe/internal/results"
	"loadprobe/internal/runner"
	"loadprobe/internal/stats"
)

func sampleSummary() stats.Summary {
	set := results.Set{
		{RequestID: 0, ResponseTimeMs: 10, StatusCode: 200, Success: true},
		{RequestID: 1, ResponseTimeMs: 20, StatusCode: 200, Success: true},
		{RequestID: 2, ResponseTimeMs: 30, Error: "connection refused"},
		{RequestID: 3, ResponseTimeMs: 40, Error: "connection refused"},
		{RequestID: 4, ResponseTimeMs: 50, StatusCode: 500, Error: "HTTP 500"},
	}
	s := stats.Compute(set).WithElapsed(2 * time.Second)
	s.RunID = "run-123"
	return s
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	WriteConsole(&buf, sampleSummary())
	out := buf.String()

	for _, want := range []string{
		"Total requests     : 5",
		"2 (40.0%)",
		"3 (60.0%)",
		"Total elapsed time : 2.00s",
		"Median  : 30.0",
		"P95     : 50.0",
		"connection refused: 2",
		"HTTP 500: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "interrupted") {
		t.Error("Completed run should not print the interrupted notice")
	}
	if strings.Index(out, "connection refused") > strings.Index(out, "HTTP 500") {
		t.Error("Error breakdown should list the most frequent error first")
	}
}

func TestWriteConsole_EmptyInterrupted(t *testing.T) {
	var buf bytes.Buffer
	WriteConsole(&buf, stats.Summary{Interrupted: true})
	out := buf.String()

	if !strings.Contains(out, "No results to display.") {
		t.Errorf("Expected empty notice, got:\n%s", out)
	}
	if !strings.Contains(out, "Test was interrupted") {
		t.Errorf("Expected interrupted notice, got:\n%s", out)
	}
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	WriteHeader(&buf, runner.Config{URL: "http://localhost:8080/fast", Concurrency: 10, Total: 100, TimeoutSec: 30, HTTP2: true}, "run-9")
	out := buf.String()

	for _, want := range []string{"run-9", "http://localhost:8080/fast", "Concurrent : 10", "Total      : 100", "Timeout    : 30s", "HTTP/2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in header:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := runner.Config{URL: "http://localhost:8080/fast", Concurrency: 5, Total: 5}
	if err := WriteJSON(&buf, sampleSummary(), cfg, errors.New("run aborted: boom")); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var res Result
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if res.RunID != "run-123" || res.TotalRequests != 5 || res.SuccessCount != 2 || res.FailedCount != 3 {
		t.Errorf("Unexpected counts: %+v", res)
	}
	if res.ResponseTimeMs.P99 != 50 || res.ResponseTimeMs.Median != 30 {
		t.Errorf("Unexpected latency stats: %+v", res.ResponseTimeMs)
	}
	if len(res.Errors) != 2 || res.Errors[0].Error != "connection refused" || res.Errors[0].Count != 2 {
		t.Errorf("Unexpected errors: %+v", res.Errors)
	}
	if res.Aborted != "run aborted: boom" {
		t.Errorf("Expected aborted reason, got %q", res.Aborted)
	}
	if res.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 req/s, got %v", res.RequestsPerSecond)
	}
}

func TestSortedErrors(t *testing.T) {
	got := SortedErrors(map[string]int{"b": 1, "a": 1, "c": 3})
	want := []string{"c", "a", "b"}
	for i, w := range want {
		if got[i].Error != w {
			t.Errorf("Position %d: expected %s, got %s", i, w, got[i].Error)
		}
	}
}

func TestProgressLine(t *testing.T) {
	line := ProgressLine(runner.Progress{Dispatched: 10, Total: 40, Success: 9, Fail: 1, ErrorRate: 10}, time.Second)
	if !strings.Contains(line, "[=====---------------] 10/40 (25.0%)") {
		t.Errorf("Unexpected progress line: %q", line)
	}
	if !strings.Contains(line, "OK: 9 | Err: 1 (10.0%)") {
		t.Errorf("Expected counters in progress line: %q", line)
	}
}
