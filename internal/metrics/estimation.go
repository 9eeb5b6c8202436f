package metrics

import (
	"math"

	"github.com/san-kum/linsim/internal/linalg"
	"github.com/san-kum/linsim/internal/linsys"
)

// EstimationRMS is the root mean square of the position estimate error
// x[0] - mu[0]. It stays zero for unfiltered runs, where mu mirrors x.
type EstimationRMS struct {
	sq mean
}

func NewEstimationRMS() *EstimationRMS { return &EstimationRMS{} }

func (e *EstimationRMS) Name() string { return "estimation_rms" }

func (e *EstimationRMS) Observe(t, u float64, st *linsys.State) {
	if st.Mu == nil {
		e.sq.add(0)
		return
	}
	d := st.X.AtVec(0) - st.Mu.AtVec(0)
	e.sq.add(d * d)
}

func (e *EstimationRMS) Value() float64 { return math.Sqrt(e.sq.value(0)) }

func (e *EstimationRMS) Reset() { e.sq.reset() }

// CovarianceTrace reports trace(P) after the last tick.
type CovarianceTrace struct {
	last float64
}

func NewCovarianceTrace() *CovarianceTrace { return &CovarianceTrace{} }

func (c *CovarianceTrace) Name() string { return "covariance_trace" }

func (c *CovarianceTrace) Observe(t, u float64, st *linsys.State) {
	if st.P != nil {
		c.last = linalg.Trace(st.P)
	}
}

func (c *CovarianceTrace) Value() float64 { return c.last }
func (c *CovarianceTrace) Reset()         { c.last = 0 }
