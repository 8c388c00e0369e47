package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loadprobe/internal/report"
	"loadprobe/internal/runner"
	"loadprobe/internal/tui/components"
	"loadprobe/internal/tui/styles"
)

// Model renders the running counters of the measured phase.
type Model struct {
	Stats    runner.Progress
	Progress progress.Model

	ThroughputLine components.Sparkline
	LatencyLine    components.Sparkline

	Warmup     bool
	StartTime  time.Time
	LastUpdate time.Time
	LastReqs   uint64

	Width  int
	Height int
}

func NewModel() Model {
	slRps := components.NewSparkline(
		40, 1,
		"Req/s per batch",
		styles.Active,
	)

	slLat := components.NewSparkline(
		40, 1,
		"Latency P99 (ms)",
		styles.Warn,
	)

	return Model{
		Progress:       progress.New(progress.WithDefaultGradient()),
		ThroughputLine: slRps,
		LatencyLine:    slLat,
		Warmup:         true,
		StartTime:      time.Now(),
		LastUpdate:     time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runner.Progress:
		now := time.Now()
		if msg.Phase == runner.PhaseWarmup {
			m.Warmup = true
			return m, nil
		}
		if m.Warmup {
			// First measured batch: restart the clocks.
			m.Warmup = false
			m.StartTime = now
		}

		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		done := msg.Success + msg.Fail
		rps := float64(done-m.LastReqs) / dt

		m.ThroughputLine.Add(uint64(rps))
		m.LatencyLine.Add(uint64(msg.P99Ms))

		m.Stats = msg
		m.LastReqs = done
		m.LastUpdate = now

		return m, m.Progress.SetPercent(msg.Fraction())

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4

		half := (msg.Width / 2) - 4
		if half < 10 {
			half = 10
		}
		m.ThroughputLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.Warmup {
		return styles.Subtle.Render("Warming up...")
	}

	s := strings.Builder{}

	errRate := m.Stats.ErrorRate

	var errColor lipgloss.Style
	if errRate > 5.0 {
		errColor = styles.Error
	} else if errRate > 1.0 {
		errColor = styles.Warn
	} else {
		errColor = styles.Active
	}

	col1 := fmt.Sprintf("SENT: %d/%d\nBATCH: %d", m.Stats.Dispatched, m.Stats.Total, m.Stats.Batch)
	col2 := fmt.Sprintf("ERR: %.2f%%\nFAIL: %d", errRate, m.Stats.Fail)
	col3 := fmt.Sprintf("OK: %d\nELAPSED: %s", m.Stats.Success, time.Since(m.StartTime).Round(time.Second))

	grid := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(errColor.Render(col2)),
		styles.Box.Render(col3),
	)
	s.WriteString(grid)
	s.WriteString("\n\n")

	// Sparklines
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.ThroughputLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	// Approximate latency
	latencies := fmt.Sprintf(
		"Avg: %.2f ms  |  P50: %.2f ms  |  P95: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.MeanMs,
		m.Stats.P50Ms,
		m.Stats.P95Ms,
		m.Stats.P99Ms,
		m.Stats.MaxMs,
	)
	width := m.Width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(styles.Box.Width(width).Render(latencies))
	s.WriteString("\n\n")

	if errs := topErrors(m.Stats.Errors, 3); errs != "" {
		s.WriteString(styles.Box.Width(width).Render(styles.Error.Render(errs)))
		s.WriteString("\n\n")
	}

	s.WriteString(m.Progress.View())

	return s.String()
}

// topErrors lists the n most frequent errors seen so far.
func topErrors(errs map[string]int, n int) string {
	sorted := report.SortedErrors(errs)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	lines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		lines = append(lines, fmt.Sprintf("%d x %s", e.Count, e.Error))
	}
	return strings.Join(lines, "\n")
}
