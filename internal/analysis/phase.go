package analysis

import (
	"strings"

	"github.com/san-kum/linsim/internal/sim"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds position against velocity for one run.
type PhasePortrait struct {
	Points []Point
}

// NewPhasePortrait pairs the position and velocity samples of r. With
// estimated set and a filtered run it uses the estimates instead of the
// true state.
func NewPhasePortrait(r *sim.Result, estimated bool) *PhasePortrait {
	pos, vel := r.Position.Values(), r.Velocity.Values()
	if estimated && r.ErrorBars {
		pos, vel = r.Position.Estimates(), r.Velocity.Estimates()
	}

	n := min(len(pos), len(vel))
	portrait := &PhasePortrait{Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		portrait.Points[i] = Point{X: pos[i], Y: vel[i]}
	}
	return portrait
}

// Crossings returns the interpolated times at which s rises through level.
func Crossings(s sim.Series, level float64) []float64 {
	var out []float64
	for i := 1; i < len(s.Samples); i++ {
		prev, curr := s.Samples[i-1], s.Samples[i]
		if prev.True < level && curr.True >= level {
			frac := (level - prev.True) / (curr.True - prev.True)
			out = append(out, prev.T+frac*(curr.T-prev.T))
		}
	}
	return out
}

// MeanPeriod averages the gaps between successive crossings. It is zero with
// fewer than two crossings.
func MeanPeriod(crossings []float64) float64 {
	if len(crossings) < 2 {
		return 0
	}
	return (crossings[len(crossings)-1] - crossings[0]) / float64(len(crossings)-1)
}

// ASCII draws the portrait on a width×height grid with axes through the
// origin when it is in view.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y

	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
