package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linsim/internal/sim"
)

type ChartOptions struct {
	Width  int
	Height int
	// Legend appends a lipgloss legend under each chart.
	Legend bool
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 80, Height: 10, Legend: true}
}

var ansiColors = map[string]asciigraph.AnsiColor{
	"#00c": asciigraph.MediumBlue,
	"#b0d": asciigraph.DarkViolet,
	"#080": asciigraph.Green,
	"#0bb": asciigraph.DarkCyan,
	"#c00": asciigraph.Red,
}

// AnsiColor maps a series colour onto the closest terminal colour.
func AnsiColor(hex string) asciigraph.AnsiColor {
	if c, ok := ansiColors[strings.ToLower(hex)]; ok {
		return c
	}
	return asciigraph.Default
}

// RenderSeries plots one series. Filtered series show the truth and the
// estimate on the same axes.
func RenderSeries(s sim.Series, o ChartOptions) string {
	if len(s.Samples) == 0 {
		return ""
	}

	data := [][]float64{s.Values()}
	if s.ErrorBars {
		data = append(data, s.Estimates())
	}

	colors := make([]asciigraph.AnsiColor, len(data))
	for i := range colors {
		if i < len(s.Colors) {
			colors[i] = AnsiColor(s.Colors[i])
		}
	}

	last := s.Samples[len(s.Samples)-1].T
	graph := asciigraph.PlotMany(data,
		asciigraph.Height(o.Height),
		asciigraph.Width(o.Width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(fmt.Sprintf("%s, t = 0 .. %.4g s", s.Name, last)),
	)
	if !o.Legend || len(s.Labels) < 2 {
		return graph
	}
	return graph + "\n" + Legend(s.Labels[1:], s.Colors)
}

// Render plots position, velocity and, unless hidden, force.
func Render(r *sim.Result, o ChartOptions) string {
	series := []sim.Series{r.Position, r.Velocity}
	if !r.Force.Hidden {
		series = append(series, r.Force)
	}

	charts := make([]string, 0, len(series))
	for _, s := range series {
		if chart := RenderSeries(s, o); chart != "" {
			charts = append(charts, chart)
		}
	}
	return strings.Join(charts, "\n\n")
}
