package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"loadprobe/internal/runner"
	"loadprobe/internal/stats"
	"loadprobe/internal/tui/live"
	"loadprobe/internal/tui/result"
	"loadprobe/internal/tui/styles"
)

// runDoneMsg is sent once warmup and the measured phase have returned.
type runDoneMsg struct {
	err error
}

// Model drives one run: warmup, the live view, then the summary.
type Model struct {
	Runner *runner.Runner
	Signal *runner.Signal

	Live   live.Model
	Result result.Model

	Stopping bool
	Done     bool
	Err      error

	Width  int
	Height int
}

func NewModel(r *runner.Runner, sig *runner.Signal) Model {
	return Model{
		Runner: r,
		Signal: sig,
		Live:   live.NewModel(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		startRun(m.Runner, m.Signal.Context()),
		waitForUpdate(m.Runner.Updates),
	)
}

func startRun(r *runner.Runner, ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		defer close(r.Updates)

		var err error
		if !r.Cfg.SkipWarmup {
			err = r.Warmup(ctx)
		}
		if err == nil {
			_, err = r.Run(ctx)
		}
		return runDoneMsg{err: err}
	}
}

func waitForUpdate(sub runner.ProgressChan) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-sub
		if !ok {
			return nil
		}
		return p
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.Done {
				return m, tea.Quit
			}
			if !m.Stopping {
				// Let the current batch finish, then show what we have.
				m.Stopping = true
				m.Signal.Trigger()
				return m, nil
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		m.Result, _ = m.Result.Update(msg)
		return m, cmd

	case runner.Progress:
		var cmd tea.Cmd
		m.Live, cmd = m.Live.Update(msg)
		return m, tea.Batch(cmd, waitForUpdate(m.Runner.Updates))

	case runDoneMsg:
		m.Done = true
		m.Err = msg.err
		m.Result = result.NewModel(m.Runner.Summary(), msg.err)
		m.Result.Width = m.Width
		m.Result.Height = m.Height
		return m, nil
	}

	// Progress bar animation frames
	var cmd tea.Cmd
	m.Live, cmd = m.Live.Update(msg)
	return m, cmd
}

// Summary is the report for whatever has completed. A run that was asked
// to stop and quit before Run returned is still labeled interrupted.
func (m Model) Summary() stats.Summary {
	s := m.Runner.Summary()
	if !m.Done && m.Signal.IsSet() {
		s.Interrupted = true
	}
	return s
}

func (m Model) View() string {
	if m.Done {
		return m.Result.View()
	}

	s := strings.Builder{}

	// Header
	s.WriteString(styles.Title.Render("🚀 loadprobe"))
	s.WriteString("\n")

	cfg := m.Runner.Cfg
	s.WriteString(fmt.Sprintf("URL: %s\n", cfg.URL))
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("Concurrent: %d | Total: %d | Timeout: %ds | Run: %s",
		cfg.Concurrency, cfg.Total, cfg.TimeoutSec, m.Runner.RunID)))
	s.WriteString("\n\n")

	s.WriteString(m.Live.View())
	s.WriteString("\n\n")

	if m.Stopping {
		s.WriteString(styles.Warn.Render("⚠️  Interrupt received. Finishing current batch... (press again to quit now)"))
	} else {
		s.WriteString(styles.RenderKey("q", "stop after current batch"))
	}

	return s.String()
}
