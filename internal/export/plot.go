package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/linsim/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"
)

// ChartFormats are the extensions WriteChart understands.
var ChartFormats = []string{"png", "svg", "pdf"}

const (
	chartWidth     = 10 * vg.Inch
	chartRowHeight = 3 * vg.Inch
)

// sigmaBars pairs the estimates with ±sigma error bars.
type sigmaBars struct {
	plotter.XYs
	plotter.YErrors
}

// SeriesPlot builds one chart. Filtered series get the true line, the
// estimate line and ±sigma error bars on the estimate.
func SeriesPlot(s sim.Series, title string) (*plot.Plot, error) {
	if len(s.Samples) == 0 {
		return nil, fmt.Errorf("series %s is empty", s.Name)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = s.Name
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	truth := make(plotter.XYs, len(s.Samples))
	for i, sample := range s.Samples {
		truth[i] = plotter.XY{X: sample.T, Y: sample.True}
	}
	trueLine, err := plotter.NewLine(truth)
	if err != nil {
		return nil, err
	}
	trueLine.Color = HexColor(colorAt(s.Colors, 0))
	trueLine.Width = vg.Points(1)
	p.Add(trueLine)
	p.Legend.Add(labelAt(s.Labels, 1, s.Name), trueLine)

	if !s.ErrorBars {
		return p, nil
	}

	bars := sigmaBars{
		XYs:     make(plotter.XYs, len(s.Samples)),
		YErrors: make(plotter.YErrors, len(s.Samples)),
	}
	for i, sample := range s.Samples {
		bars.XYs[i] = plotter.XY{X: sample.T, Y: sample.Est}
		bars.YErrors[i].Low = sample.Sigma
		bars.YErrors[i].High = sample.Sigma
	}

	estColor := HexColor(colorAt(s.Colors, 1))
	estLine, err := plotter.NewLine(bars.XYs)
	if err != nil {
		return nil, err
	}
	estLine.Color = estColor
	estLine.Width = vg.Points(1)
	estLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	errBars, err := plotter.NewYErrorBars(bars)
	if err != nil {
		return nil, err
	}
	errBars.Color = estColor
	errBars.Width = vg.Points(0.5)

	p.Add(errBars, estLine)
	p.Legend.Add(labelAt(s.Labels, 2, "estimate"), estLine)
	return p, nil
}

// WriteChart stacks the visible series of r vertically and encodes the
// figure in format (png, svg or pdf).
func WriteChart(w io.Writer, r *sim.Result, title, format string) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))

	series := []sim.Series{r.Position, r.Velocity}
	if !r.Force.Hidden {
		series = append(series, r.Force)
	}

	plots := make([][]*plot.Plot, 0, len(series))
	for i, s := range series {
		heading := ""
		if i == 0 {
			heading = title
		}
		p, err := SeriesPlot(s, heading)
		if err != nil {
			return err
		}
		plots = append(plots, []*plot.Plot{p})
	}

	c, err := draw.NewFormattedCanvas(chartWidth, chartRowHeight*vg.Length(len(plots)), format)
	if err != nil {
		return fmt.Errorf("chart format %q: %w", format, err)
	}

	tiles := draw.Tiles{
		Rows: len(plots),
		Cols: 1,
		PadY: vg.Points(6),
	}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	_, err = c.WriteTo(w)
	return err
}

// SaveChart writes the chart to path, taking the format from its extension.
func SaveChart(path string, r *sim.Result, title string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("chart path %s needs an extension (%s)", path, strings.Join(ChartFormats, ", "))
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteChart(file, r, title, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// HexColor parses #rgb or #rrggbb. Anything else is black.
func HexColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func colorAt(colors []string, i int) string {
	if i < len(colors) {
		return colors[i]
	}
	return ""
}

func labelAt(labels []string, i int, fallback string) string {
	if i < len(labels) {
		return labels[i]
	}
	return fallback
}
