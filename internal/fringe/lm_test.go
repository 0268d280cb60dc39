package fringe

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLevenbergMarquardtAtMinimum(t *testing.T) {
	// Residuals vanish at the starting point; the solver must report
	// convergence instead of rejecting steps until lambda overflows.
	eval := func(p []float64) ([]float64, *mat.Dense) {
		r := []float64{p[0] - 3, p[1] + 1}
		jac := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
		return r, jac
	}

	params, ok := levenbergMarquardt([]float64{3, -1}, eval, nil, 50, 1e-10)
	if !ok {
		t.Fatal("levenbergMarquardt() reported divergence at the minimum")
	}
	if params[0] != 3 || params[1] != -1 {
		t.Errorf("params = %v, want [3 -1]", params)
	}
}

func TestLevenbergMarquardtQuadratic(t *testing.T) {
	// Single-parameter least squares with a non-trivial start.
	eval := func(p []float64) ([]float64, *mat.Dense) {
		r := []float64{2 * (p[0] - 5)}
		jac := mat.NewDense(1, 1, []float64{2})
		return r, jac
	}

	params, ok := levenbergMarquardt([]float64{0}, eval, nil, 100, 1e-12)
	if !ok {
		t.Fatal("levenbergMarquardt() did not converge on a quadratic")
	}
	if got := params[0]; got < 5-1e-6 || got > 5+1e-6 {
		t.Errorf("params[0] = %v, want 5", got)
	}
}
