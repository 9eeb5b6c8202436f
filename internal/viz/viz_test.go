package viz

import (
	"strings"
	"testing"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/linsim/internal/sim"
)

func series(name string, errorBars bool, labels, colors []string) sim.Series {
	s := sim.Series{Name: name, ErrorBars: errorBars, Labels: labels, Colors: colors}
	for i := 0; i < 20; i++ {
		v := float64(i) * 0.1
		s.Samples = append(s.Samples, sim.Sample{T: v, True: v, Est: v + 0.01, Sigma: 0.1})
	}
	return s
}

func TestRender(t *testing.T) {
	r := &sim.Result{
		Position: series("position", false, []string{"time", "pos"}, []string{"#00c"}),
		Velocity: series("velocity", false, []string{"time", "vel"}, []string{"#080"}),
		Force:    series("force", false, []string{"time", "force"}, []string{"#c00"}),
	}

	out := Render(r, DefaultChartOptions())
	for _, want := range []string{"position", "velocity", "force"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q chart in output", want)
		}
	}

	r.Force.Hidden = true
	out = Render(r, DefaultChartOptions())
	if strings.Contains(out, "force, t =") {
		t.Error("hidden force chart was rendered")
	}
}

func TestRenderSeriesFiltered(t *testing.T) {
	s := series("position", true, []string{"time", "true pos", "est. pos"}, []string{"#00c", "#b0d"})
	out := RenderSeries(s, ChartOptions{Width: 40, Height: 5, Legend: true})
	if !strings.Contains(out, "est. pos") {
		t.Error("legend is missing the estimate label")
	}
	if RenderSeries(sim.Series{Name: "empty"}, DefaultChartOptions()) != "" {
		t.Error("empty series should render nothing")
	}
}

func TestAnsiColor(t *testing.T) {
	tests := []struct {
		hex  string
		want asciigraph.AnsiColor
	}{
		{"#00c", asciigraph.MediumBlue},
		{"#C00", asciigraph.Red},
		{"#123456", asciigraph.Default},
	}
	for _, tt := range tests {
		if got := AnsiColor(tt.hex); got != tt.want {
			t.Errorf("AnsiColor(%s) = %v, want %v", tt.hex, got, tt.want)
		}
	}
}

func TestSlider(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "●────"},
		{5, "━━●──"},
		{10, "━━━━●"},
		{20, "━━━━●"},
	}
	for _, tt := range tests {
		if got := Slider(tt.value, 0, 10, 5); got != tt.want {
			t.Errorf("Slider(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "chalk" {
		t.Error("unknown theme should fall back to chalk")
	}
	seen := map[string]bool{}
	th := Themes[0]
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th)
	}
	if len(seen) != len(Themes) {
		t.Errorf("NextTheme visited %d of %d themes", len(seen), len(Themes))
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("ThemeNames length mismatch")
	}
}

func TestMetricsTable(t *testing.T) {
	s := NewStyles(ThemeMinimal)
	out := MetricsTable(map[string]float64{"stability": 1, "control_effort": 0.25}, s)
	if strings.Index(out, "control_effort") > strings.Index(out, "stability") {
		t.Error("metrics are not sorted")
	}
	if !strings.Contains(MetricsTable(nil, s), "no metrics") {
		t.Error("empty table should say so")
	}
}
