// Package control provides the control laws that drive a linear system.
//
// Controllers implement [linsys.Controller] and return a scalar force each
// tick:
//
//   - [Zero]: no force
//   - [Manual]: a constant force that can be changed between runs
//   - [Pulse]: unit-height force over a time window
//   - [PID]: Proportional-Integral-Derivative on position
//   - [LQR]: state feedback u = -K(x - target), with K from [DARE]
//
// # Usage
//
//	sys, _ := linsys.Build(opts)
//	sys.SetController(control.NewPulse(1.0, 0.3, sys.Dt))
//	// or a static gain acting on the filtered estimate:
//	k, _ := control.Gain(sys.A, sys.B, control.Weights(sys.N(), 1, 1), control.Weights(1, 1))
//	sys.SetGain(k)
//
// Stateful controllers implement Reset and are reset by the simulator at
// the start of every run.
package control
