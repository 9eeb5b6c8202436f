package linsys

import (
	"fmt"
	"math"

	"github.com/san-kum/linsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Build constructs the discretised double integrator described by opts.
//
// Stiffness and damping subtract dt·k and dt·b from the velocity row. An
// affine system appends a constant third dimension. When opts asks for a
// filter, W holds the process variances, C selects the measured channels and
// V holds their variances.
func Build(opts Options) (*System, error) {
	if err := checkOptions(opts); err != nil {
		return nil, err
	}

	dt := opts.Dt
	if dt == 0 {
		dt = DefaultDt
	}

	ticksPerPlot := opts.TicksPerPlot
	if ticksPerPlot == 0 {
		ticksPerPlot = DefaultTicksPerPlot(dt)
	}

	a := [][]float64{{1, dt}, {0, 1}}
	b := []float64{0, dt}

	a[1][0] -= dt * opts.Stiffness
	a[1][1] -= dt * opts.Damping

	if opts.IsAffine {
		a[0] = append(a[0], 0)
		a[1] = append(a[1], 0)
		a = append(a, []float64{0, 0, 1})
		b = append(b, 0)
	}

	n := len(a)
	sys := &System{
		A:            mat.NewDense(n, n, flatten(a)),
		B:            mat.NewDense(n, 1, b),
		Dt:           dt,
		TicksPerPlot: ticksPerPlot,
		Affine:       opts.IsAffine,
	}

	if !opts.WantsFilter() {
		return sys, nil
	}

	processStddevs := []float64{opts.PosProcessStddev, opts.VelProcessStddev}
	if opts.IsAffine {
		processStddevs = append(processStddevs, 0)
	}

	var rows [][]float64
	var measStddevs []float64
	if opts.PosMeasStddev != 0 {
		rows = append(rows, selector(0, n))
		measStddevs = append(measStddevs, opts.PosMeasStddev)
	}
	if opts.VelMeasStddev != 0 {
		rows = append(rows, selector(1, n))
		measStddevs = append(measStddevs, opts.VelMeasStddev)
	}

	sys.W = linalg.VarianceFromStddevs(processStddevs...)
	sys.C = mat.NewDense(len(rows), n, flatten(rows))
	sys.V = linalg.VarianceFromStddevs(measStddevs...)

	return sys, nil
}

func checkOptions(opts Options) error {
	if math.IsNaN(opts.Dt) || math.IsInf(opts.Dt, 0) || opts.Dt < 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidOptions, opts.Dt)
	}
	if opts.TicksPerPlot < 0 {
		return fmt.Errorf("%w: ticks_per_plot must be positive, got %d", ErrInvalidOptions, opts.TicksPerPlot)
	}

	stddevs := map[string]float64{
		"pos_process_stddev": opts.PosProcessStddev,
		"vel_process_stddev": opts.VelProcessStddev,
		"pos_meas_stddev":    opts.PosMeasStddev,
		"vel_meas_stddev":    opts.VelMeasStddev,
	}
	if opts.PosInitStddev != nil {
		stddevs["pos_init_stddev"] = *opts.PosInitStddev
	}
	if opts.VelInitStddev != nil {
		stddevs["vel_init_stddev"] = *opts.VelInitStddev
	}
	for name, v := range stddevs {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidOptions, name, v)
		}
	}
	return nil
}

func selector(idx, n int) []float64 {
	row := make([]float64, n)
	row[idx] = 1
	return row
}

func flatten(rows [][]float64) []float64 {
	var out []float64
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}
