package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from one theme.
type Styles struct {
	Theme    Theme
	Title    lipgloss.Style
	Panel    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Hint     lipgloss.Style
	Selected lipgloss.Style
	Preview  lipgloss.Style
	Error    lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Theme: t,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Label: lipgloss.NewStyle().Foreground(t.Muted),
		Value: lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		Hint:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Accent),
		Preview: lipgloss.NewStyle().Foreground(t.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// Legend renders a coloured square and label per series line.
func Legend(labels, colors []string) string {
	items := make([]string, 0, len(labels))
	for i, label := range labels {
		box := "■"
		if i < len(colors) {
			box = lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Render(box)
		}
		items = append(items, box+" "+label)
	}
	return strings.Join(items, "   ")
}

// Slider draws a horizontal track with a knob at value.
func Slider(value, lo, hi float64, width int) string {
	if width < 2 {
		width = 2
	}
	frac := 0.0
	if hi > lo {
		frac = (value - lo) / (hi - lo)
	}
	frac = min(max(frac, 0), 1)

	pos := int(frac * float64(width-1))
	return strings.Repeat("━", pos) + "●" + strings.Repeat("─", width-1-pos)
}

// MetricsTable lists metrics sorted by name.
func MetricsTable(metrics map[string]float64, s Styles) string {
	if len(metrics) == 0 {
		return s.Hint.Render("no metrics")
	}

	names := make([]string, 0, len(metrics))
	width := 0
	for name := range metrics {
		names = append(names, name)
		width = max(width, len(name))
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(s.Label.Render(fmt.Sprintf("%-*s", width, name)))
		sb.WriteString("  ")
		sb.WriteString(s.Value.Render(fmt.Sprintf("%.6g", metrics[name])))
		sb.WriteByte('\n')
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
