package control

import "github.com/san-kum/linsim/internal/linsys"

type Zero struct{}

func NewZero() *Zero {
	return &Zero{}
}

func (z *Zero) Control(t float64, sys *linsys.System, st *linsys.State) float64 {
	return 0
}
