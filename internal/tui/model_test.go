package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"loadprobe/internal/report"
	"loadprobe/internal/runner"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := runner.Config{URL: "http://localhost:8080/fast", Concurrency: 2, Total: 4, TimeoutSec: 1}
	r, err := runner.NewRunner(cfg, make(runner.ProgressChan, 10))
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	return NewModel(r, runner.NewSignal(context.Background()))
}

func TestModel_FirstInterruptStopsRun(t *testing.T) {
	m := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)

	if cmd != nil {
		t.Error("First interrupt should not quit")
	}
	if !m.Stopping || !m.Signal.IsSet() {
		t.Error("First interrupt should trigger the signal")
	}
	if !strings.Contains(m.View(), "Finishing current batch") {
		t.Errorf("Expected stopping notice in view:\n%s", m.View())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("Second interrupt should quit")
	}
}

func TestModel_ProgressAndDone(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(runner.Progress{Phase: runner.PhaseWarmup, Dispatched: 2, Total: 2})
	m = next.(Model)
	if !m.Live.Warmup {
		t.Error("Expected warmup state after warmup progress")
	}

	next, _ = m.Update(runner.Progress{Phase: runner.PhaseMeasured, Dispatched: 2, Total: 4, Batch: 2, Success: 1, Fail: 1})
	m = next.(Model)
	if m.Live.Warmup {
		t.Error("Measured progress should leave warmup state")
	}
	if m.Live.Stats.Dispatched != 2 {
		t.Errorf("Expected 2 dispatched, got %d", m.Live.Stats.Dispatched)
	}
	if !strings.Contains(m.View(), "SENT: 2/4") {
		t.Errorf("Expected live counters in view:\n%s", m.View())
	}

	next, _ = m.Update(runDoneMsg{})
	m = next.(Model)
	if !m.Done {
		t.Fatal("Expected done after runDoneMsg")
	}
	if !strings.Contains(m.View(), "No results to display.") {
		t.Errorf("Expected empty summary view:\n%s", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q after completion should quit")
	}
}

func TestModel_ForceQuitMidBatchIsInterrupted(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := runner.Config{URL: server.URL, Concurrency: 2, Total: 4, TimeoutSec: 5, SkipWarmup: true}
	r, err := runner.NewRunner(cfg, make(runner.ProgressChan, 10))
	if err != nil {
		t.Fatalf("Failed to create runner: %v", err)
	}
	m := NewModel(r, runner.NewSignal(context.Background()))

	done := make(chan tea.Msg, 1)
	go func() { done <- startRun(m.Runner, m.Signal.Context())() }()
	<-arrived
	time.Sleep(20 * time.Millisecond)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("Second q should quit")
	}

	// The first batch is still in flight.
	s := m.Summary()
	if !s.Interrupted {
		t.Error("Summary after a forced quit should be labeled interrupted")
	}
	if s.Elapsed < 20*time.Millisecond {
		t.Errorf("Expected the running phase's elapsed time, got %v", s.Elapsed)
	}
	var out strings.Builder
	report.WriteConsole(&out, s)
	if !strings.Contains(out.String(), "Test was interrupted") {
		t.Errorf("Expected interrupted notice in report:\n%s", out.String())
	}

	close(release)
	msg := <-done
	if rd, ok := msg.(runDoneMsg); !ok || rd.err != nil {
		t.Errorf("Expected clean runDoneMsg, got %#v", msg)
	}
	if got := r.Summary(); !got.Interrupted || got.TotalRequests != 2 {
		t.Errorf("Expected the first batch only, interrupted, got %+v", got)
	}
}
