package control

import (
	"github.com/san-kum/linsim/internal/linsys"
	"gonum.org/v1/gonum/mat"
)

// observed is what a controller may act on: the estimate when the system
// runs a filter, the true state otherwise.
func observed(sys *linsys.System, st *linsys.State) *mat.VecDense {
	if sys != nil && sys.Filtering() && st.Mu != nil {
		return st.Mu
	}
	return st.X
}
