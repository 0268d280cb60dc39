package fringe

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/mat"
)

// CosFitResult holds the fitted parameters of the fringe model
// I(T) = A + B·cos²(K·T + Phi).
type CosFitResult struct {
	A   float64
	B   float64
	K   float64
	Phi float64
}

// Period returns 2π/K, the period of the cos² argument in temperature
// units. The intensity itself repeats twice per period.
func (r CosFitResult) Period() float64 {
	return 2 * math.Pi / r.K
}

// Visibility returns the fitted fringe visibility B/(2A+B)
func (r CosFitResult) Visibility() float64 {
	return r.B / (2*r.A + r.B)
}

// CosFitParams defines fit-iteration limits for FitCos2
type CosFitParams struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultCosFitParams returns limits suited to fringe curves of tens of
// points
func DefaultCosFitParams() CosFitParams {
	return CosFitParams{
		MaxIterations: 500,
		Tolerance:     1e-10,
	}
}

// RawVisibility computes (I_max − I_min)/(I_max + I_min) directly from the
// curve extrema, without fitting.
func RawVisibility(curve FringeCurve) (float64, error) {
	if len(curve) == 0 {
		return 0, fmt.Errorf("%w: empty curve", ErrInsufficientData)
	}
	min, max := curve[0].MeanAmplitude, curve[0].MeanAmplitude
	for _, p := range curve[1:] {
		if p.MeanAmplitude < min {
			min = p.MeanAmplitude
		}
		if p.MeanAmplitude > max {
			max = p.MeanAmplitude
		}
	}
	if max+min == 0 {
		// All-zero or sign-cancelling curve: the ratio would be NaN.
		return 0, fmt.Errorf("%w: curve extrema sum to zero", ErrInsufficientData)
	}
	return (max - min) / (max + min), nil
}

// FitCos2 fits the fringe curve to I(T) = A + B·cos²(K·T + Phi) by weighted
// Levenberg-Marquardt, using each point's amplitude standard deviation as
// the weight. A cos² fit is underdetermined below four distinct
// temperatures.
func FitCos2(curve FringeCurve, params CosFitParams) (CosFitResult, error) {
	if distinctTemperatures(curve) < 4 {
		return CosFitResult{}, fmt.Errorf("%w: need at least 4 distinct temperatures, have %d",
			ErrInsufficientData, distinctTemperatures(curve))
	}

	temps := curve.Temperatures()
	means := curve.Means()
	n := len(curve)

	weights := pointWeights(curve)
	initial := initialCosGuess(temps, means)

	tiny := 1e-12
	clamp := func(p []float64) {
		if p[0] < 0 {
			p[0] = 0
		}
		if p[1] < 0 {
			p[1] = 0
		}
		if p[2] < tiny {
			p[2] = tiny
		}
	}

	eval := func(p []float64) ([]float64, *mat.Dense) {
		a, b, k, phi := p[0], p[1], p[2], p[3]
		r := make([]float64, n)
		jac := mat.NewDense(n, 4, nil)
		for i := 0; i < n; i++ {
			arg := k*temps[i] + phi
			c := math.Cos(arg)
			s := math.Sin(arg)
			r[i] = weights[i] * (means[i] - (a + b*c*c))
			jac.Set(i, 0, -weights[i])
			jac.Set(i, 1, -weights[i]*c*c)
			jac.Set(i, 2, weights[i]*2*b*c*s*temps[i])
			jac.Set(i, 3, weights[i]*2*b*c*s)
		}
		return r, jac
	}

	fitted, ok := levenbergMarquardt(initial, eval, clamp, params.MaxIterations, params.Tolerance)
	if !ok || !allFinite(fitted) {
		return CosFitResult{}, ErrFitDivergence
	}
	return CosFitResult{A: fitted[0], B: fitted[1], K: fitted[2], Phi: fitted[3]}, nil
}

// initialCosGuess seeds the fit: offset from the curve minimum, fringe
// amplitude from the excursion, and angular frequency from one full
// oscillation across the span, refined by a coarse FFT estimate when the
// sampling supports one.
func initialCosGuess(temps, means []float64) []float64 {
	min, max := means[0], means[0]
	for _, v := range means[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	span := temps[len(temps)-1] - temps[0]
	k := 1.0
	if span > 0 {
		k = 2 * math.Pi / span
	}
	if est, ok := spectralFrequency(temps, means); ok {
		k = est
	}

	return []float64{min, max - min, k, 0}
}

// spectralFrequency estimates the fringe angular frequency K from the
// dominant FFT bin of the mean amplitudes. Requires a near-uniform
// temperature grid and enough points to resolve a peak.
func spectralFrequency(temps, means []float64) (float64, bool) {
	n := len(means)
	if n < 8 {
		return 0, false
	}

	dT := (temps[n-1] - temps[0]) / float64(n-1)
	if dT <= 0 {
		return 0, false
	}
	for i := 1; i < n; i++ {
		step := temps[i] - temps[i-1]
		if step < 0.5*dT || step > 1.5*dT {
			return 0, false
		}
	}

	mean := 0.0
	for _, v := range means {
		mean += v
	}
	mean /= float64(n)

	detrended := make([]float64, n)
	for i, v := range means {
		detrended[i] = v - mean
	}

	spectrum := fft.FFTReal(detrended)
	bestBin := 0
	bestMag := 0.0
	for i := 1; i <= n/2; i++ {
		if m := cmplx.Abs(spectrum[i]); m > bestMag {
			bestMag = m
			bestBin = i
		}
	}
	if bestBin == 0 || bestMag == 0 {
		return 0, false
	}

	// The dominant intensity oscillation has frequency bin/(n·dT) cycles
	// per temperature unit; cos²(K·T) oscillates with period π/K.
	freq := float64(bestBin) / (float64(n) * dT)
	return math.Pi * freq, true
}

// pointWeights converts per-point standard deviations into fit weights.
// Points with zero std receive the maximal finite weight on the curve
// rather than an infinite one.
func pointWeights(curve FringeCurve) []float64 {
	floor := math.Inf(1)
	for _, p := range curve {
		if p.StdAmplitude > 0 && p.StdAmplitude < floor {
			floor = p.StdAmplitude
		}
	}

	weights := make([]float64, len(curve))
	if math.IsInf(floor, 1) {
		// No point carries an uncertainty; fall back to an unweighted fit.
		for i := range weights {
			weights[i] = 1
		}
		return weights
	}
	for i, p := range curve {
		std := p.StdAmplitude
		if std < floor {
			std = floor
		}
		weights[i] = 1 / std
	}
	return weights
}

func distinctTemperatures(curve FringeCurve) int {
	seen := make(map[float64]struct{}, len(curve))
	for _, p := range curve {
		seen[p.Temperature] = struct{}{}
	}
	return len(seen)
}
