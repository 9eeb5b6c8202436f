package linsys

import "math"

const (
	DefaultDt     = 0.1
	DefaultTFinal = 10.0
)

// Options are the physical parameters of a point mass on ice. Zero numeric
// fields are treated as absent. The init stddevs are pointers because an
// explicit zero is meaningful for them.
type Options struct {
	Dt           float64 `yaml:"dt,omitempty" json:"dt,omitempty"`
	TicksPerPlot int     `yaml:"ticks_per_plot,omitempty" json:"ticks_per_plot,omitempty"`
	Stiffness    float64 `yaml:"stiffness,omitempty" json:"stiffness,omitempty"`
	Damping      float64 `yaml:"damping,omitempty" json:"damping,omitempty"`
	IsAffine     bool    `yaml:"is_affine,omitempty" json:"is_affine,omitempty"`

	PosProcessStddev float64 `yaml:"pos_process_stddev,omitempty" json:"pos_process_stddev,omitempty"`
	VelProcessStddev float64 `yaml:"vel_process_stddev,omitempty" json:"vel_process_stddev,omitempty"`
	PosMeasStddev    float64 `yaml:"pos_meas_stddev,omitempty" json:"pos_meas_stddev,omitempty"`
	VelMeasStddev    float64 `yaml:"vel_meas_stddev,omitempty" json:"vel_meas_stddev,omitempty"`

	PosInitStddev *float64 `yaml:"pos_init_stddev,omitempty" json:"pos_init_stddev,omitempty"`
	VelInitStddev *float64 `yaml:"vel_init_stddev,omitempty" json:"vel_init_stddev,omitempty"`
}

// DefaultKalmanOptions returns the noise levels used by the filtering demos.
func DefaultKalmanOptions() Options {
	return Options{
		PosProcessStddev: 0.1,
		VelProcessStddev: 0.01,
		PosMeasStddev:    0.1,
		VelMeasStddev:    0.01,
		PosInitStddev:    Float(0.01),
		VelInitStddev:    Float(0.001),
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// WantsFilter reports whether both process stddevs and at least one
// measurement stddev are given.
func (o Options) WantsFilter() bool {
	return o.PosProcessStddev != 0 && o.VelProcessStddev != 0 &&
		(o.PosMeasStddev != 0 || o.VelMeasStddev != 0)
}

// WithDefaultKalman fills any unset noise field from DefaultKalmanOptions.
func (o Options) WithDefaultKalman() Options {
	d := DefaultKalmanOptions()
	if o.PosProcessStddev == 0 {
		o.PosProcessStddev = d.PosProcessStddev
	}
	if o.VelProcessStddev == 0 {
		o.VelProcessStddev = d.VelProcessStddev
	}
	if o.PosMeasStddev == 0 {
		o.PosMeasStddev = d.PosMeasStddev
	}
	if o.VelMeasStddev == 0 {
		o.VelMeasStddev = d.VelMeasStddev
	}
	if o.PosInitStddev == nil {
		o.PosInitStddev = d.PosInitStddev
	}
	if o.VelInitStddev == nil {
		o.VelInitStddev = d.VelInitStddev
	}
	return o
}

// OptionsFromMap reads the recognised keys of a loose parameter mapping.
// Unknown keys are ignored.
func OptionsFromMap(m map[string]float64) Options {
	var o Options
	for k, v := range m {
		switch k {
		case "dt":
			o.Dt = v
		case "ticks_per_plot":
			o.TicksPerPlot = int(math.Round(v))
		case "stiffness":
			o.Stiffness = v
		case "damping":
			o.Damping = v
		case "is_affine":
			o.IsAffine = v != 0
		case "pos_process_stddev":
			o.PosProcessStddev = v
		case "vel_process_stddev":
			o.VelProcessStddev = v
		case "pos_meas_stddev":
			o.PosMeasStddev = v
		case "vel_meas_stddev":
			o.VelMeasStddev = v
		case "pos_init_stddev":
			o.PosInitStddev = Float(v)
		case "vel_init_stddev":
			o.VelInitStddev = Float(v)
		}
	}
	return o
}

// DefaultTicksPerPlot keeps roughly DefaultDt seconds between plotted
// samples and never returns less than one.
func DefaultTicksPerPlot(dt float64) int {
	ticks := int(math.Round(DefaultDt / dt))
	if ticks <= 0 {
		ticks = 1
	}
	return ticks
}
