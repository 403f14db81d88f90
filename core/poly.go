package core

import "github.com/soniakeys/meeus/v3/base"

// EvalPoly evaluates the power series c[0] + c[1]·x + c[2]·x² + ... at x.
// An empty coefficient list evaluates to 0.
func EvalPoly(x float64, c ...float64) float64 {
	if len(c) == 0 {
		return 0
	}
	return base.Horner(x, c...)
}
