package fringe

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// residualFunc evaluates the residual vector r and its Jacobian J = ∂r/∂p
// at the given parameter vector.
type residualFunc func(params []float64) (r []float64, jac *mat.Dense)

// levenbergMarquardt minimizes ||r(p)||² starting from initial. clamp, when
// non-nil, projects a parameter vector back into its feasible region after
// each step. Returns the best parameters found and whether the iteration
// converged.
func levenbergMarquardt(initial []float64, eval residualFunc, clamp func([]float64), maxIter int, tol float64) ([]float64, bool) {
	nParams := len(initial)
	params := append([]float64(nil), initial...)
	if clamp != nil {
		clamp(params)
	}

	r, jac := eval(params)
	cost := sumSquares(r)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return params, false
	}

	lambda := 1e-3
	for iter := 0; iter < maxIter; iter++ {
		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)

		jtr := mat.NewVecDense(nParams, nil)
		jtr.MulVec(jac.T(), mat.NewVecDense(len(r), r))

		// A vanishing gradient means the current parameters already sit at
		// a stationary point. Every trial step from here gets rejected, so
		// the post-acceptance convergence checks would never fire.
		if mat.Norm(jtr, math.Inf(1)) <= tol*(1+cost) {
			return params, true
		}

		// Damped normal equations: (JᵀJ + λ·diag(JᵀJ)) δ = Jᵀr.
		aug := mat.DenseCopyOf(&jtj)
		for i := 0; i < nParams; i++ {
			d := jtj.At(i, i)
			if d == 0 {
				d = 1
			}
			aug.Set(i, i, jtj.At(i, i)+lambda*d)
		}

		delta := mat.NewVecDense(nParams, nil)
		if err := delta.SolveVec(aug, jtr); err != nil {
			lambda *= 10
			if lambda > 1e12 {
				return params, false
			}
			continue
		}

		trial := make([]float64, nParams)
		for i := range trial {
			trial[i] = params[i] - delta.AtVec(i)
		}
		if clamp != nil {
			clamp(trial)
		}

		rTrial, jacTrial := eval(trial)
		trialCost := sumSquares(rTrial)

		stepSize := 0.0
		for i := range trial {
			stepSize += (trial[i] - params[i]) * (trial[i] - params[i])
		}
		stepSize = math.Sqrt(stepSize)
		scale := math.Sqrt(sumSquares(params)) + tol

		if math.IsNaN(trialCost) || math.IsInf(trialCost, 0) || trialCost >= cost {
			// A rejected step that was already negligible means the
			// iteration has stalled at the minimum, not diverged.
			if !math.IsNaN(trialCost) && !math.IsInf(trialCost, 0) && stepSize <= tol*scale {
				return params, true
			}
			lambda *= 10
			if lambda > 1e12 {
				return params, false
			}
			continue
		}

		improvement := cost - trialCost
		params, r, jac, cost = trial, rTrial, jacTrial, trialCost
		lambda /= 10
		if lambda < 1e-12 {
			lambda = 1e-12
		}

		if stepSize <= tol*scale || improvement <= tol*cost {
			return params, true
		}
	}
	return params, false
}

func sumSquares(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v * v
	}
	return sum
}
