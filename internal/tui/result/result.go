package result

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"loadprobe/internal/report"
	"loadprobe/internal/stats"
	"loadprobe/internal/tui/styles"
)

type Model struct {
	Summary stats.Summary
	Err     error

	Width  int
	Height int
}

func NewModel(s stats.Summary, err error) Model {
	return Model{Summary: s, Err: err}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}
	sum := m.Summary

	title := "📊 Test Complete"
	if sum.Interrupted {
		title = "📊 Test Interrupted (partial results)"
	}
	s.WriteString(styles.Title.Render(title))
	s.WriteString("\n\n")

	if m.Err != nil {
		s.WriteString(styles.Error.Render(fmt.Sprintf("Run aborted: %v", m.Err)))
		s.WriteString("\n\n")
	}

	if sum.TotalRequests == 0 {
		s.WriteString(styles.Subtle.Render("No results to display."))
		s.WriteString("\n\n")
		s.WriteString(styles.Subtle.Render("Press q to quit"))
		return s.String()
	}

	// 1. Overview
	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")

	overview := fmt.Sprintf(
		"Total Requests: %d\nSuccess:        %d (%.1f%%)\nFailed:         %d\nElapsed:        %.2fs\nThroughput:     %.2f req/s",
		sum.TotalRequests, sum.SuccessCount, sum.SuccessRate, sum.FailedCount,
		sum.Elapsed.Seconds(), sum.RequestsPerSecond,
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	// 2. Latency
	s.WriteString(styles.Active.Render("Response Time (ms)"))
	s.WriteString("\n")

	latency := fmt.Sprintf(
		"Avg:    %.1f\nMedian: %.1f\nMin:    %.1f\nMax:    %.1f\nP95:    %.1f\nP99:    %.1f",
		sum.MeanMs, sum.MedianMs, sum.MinMs, sum.MaxMs, sum.P95Ms, sum.P99Ms,
	)
	s.WriteString(styles.Box.Render(latency))

	// 3. Errors
	if len(sum.Errors) > 0 {
		s.WriteString("\n\n")
		s.WriteString(styles.Active.Render("Errors"))
		s.WriteString("\n")
		var lines []string
		for _, e := range report.SortedErrors(sum.Errors) {
			lines = append(lines, fmt.Sprintf("%d x %s", e.Count, e.Error))
		}
		s.WriteString(styles.Box.Render(styles.Error.Render(strings.Join(lines, "\n"))))
	}

	s.WriteString("\n\n")
	s.WriteString(styles.Subtle.Render("Press q to quit"))

	return s.String()
}
