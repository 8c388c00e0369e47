package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Sparkline is a one-row scrolling chart of the last Width samples.
type Sparkline struct {
	Data   []uint64
	Width  int
	Height int
	Max    uint64
	Style  lipgloss.Style
	Label  string
}

func NewSparkline(width, height int, label string, style lipgloss.Style) Sparkline {
	return Sparkline{
		Width:  width,
		Height: height,
		Label:  label,
		Style:  style,
		Data:   make([]uint64, 0, width),
	}
}

// Add appends a sample, dropping the oldest once the window is full. Max
// tracks the visible window only.
func (s *Sparkline) Add(val uint64) {
	s.Data = append(s.Data, val)
	if s.Width > 0 && len(s.Data) > s.Width {
		s.Data = s.Data[len(s.Data)-s.Width:]
	}

	s.Max = 0
	for _, v := range s.Data {
		s.Max = max(s.Max, v)
	}
}

// Graph renders the samples without label or styling.
func (s Sparkline) Graph() string {
	var graph strings.Builder
	for _, v := range s.Data {
		graph.WriteString(level(v, s.Max))
	}
	if pad := s.Width - len(s.Data); pad > 0 {
		graph.WriteString(strings.Repeat(" ", pad))
	}
	return graph.String()
}

func (s Sparkline) View() string {
	if s.Width <= 0 {
		return ""
	}
	return s.Style.Render(s.Label) + "\n" + s.Style.Render(s.Graph())
}

func level(v, peak uint64) string {
	if peak == 0 {
		return levels[0]
	}
	idx := int(float64(v) / float64(peak) * float64(len(levels)-1))
	return levels[min(max(idx, 0), len(levels)-1)]
}
