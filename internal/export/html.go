package export

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/san-kum/linsim/internal/sim"
)

// SeriesChart builds an echarts line chart of s. Filtered series add the
// estimate and dashed mu±sigma bands.
func SeriesChart(s sim.Series, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: s.Name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: s.Name}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	truth := make([]opts.LineData, len(s.Samples))
	for i, p := range s.Samples {
		truth[i] = opts.LineData{Value: []interface{}{p.T, p.True}}
	}
	line.AddSeries(labelAt(s.Labels, 1, s.Name), truth,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorAt(s.Colors, 0)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAt(s.Colors, 0)}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	if !s.ErrorBars {
		return line
	}

	est := make([]opts.LineData, len(s.Samples))
	upper := make([]opts.LineData, len(s.Samples))
	lower := make([]opts.LineData, len(s.Samples))
	for i, p := range s.Samples {
		est[i] = opts.LineData{Value: []interface{}{p.T, p.Est}}
		upper[i] = opts.LineData{Value: []interface{}{p.T, p.Est + p.Sigma}}
		lower[i] = opts.LineData{Value: []interface{}{p.T, p.Est - p.Sigma}}
	}

	estColor := colorAt(s.Colors, 1)
	estName := labelAt(s.Labels, 2, "estimate")
	line.AddSeries(estName, est,
		charts.WithLineStyleOpts(opts.LineStyle{Color: estColor}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: estColor}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	for _, band := range []struct {
		name string
		data []opts.LineData
	}{
		{estName + " +σ", upper},
		{estName + " -σ", lower},
	} {
		line.AddSeries(band.name, band.data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: estColor, Type: "dashed"}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: estColor}),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		)
	}
	return line
}

// WriteHTML renders the visible series of r as one page.
func WriteHTML(w io.Writer, r *sim.Result, title string) error {
	page := components.NewPage()
	page.SetPageTitle(title)

	page.AddCharts(
		SeriesChart(r.Position, title),
		SeriesChart(r.Velocity, ""),
	)
	if !r.Force.Hidden {
		page.AddCharts(SeriesChart(r.Force, ""))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func SaveHTML(path string, r *sim.Result, title string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHTML(file, r, title); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
