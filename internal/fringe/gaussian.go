package fringe

import (
	"math"
	"sort"

	"github.com/1smaa/mzivis/internal/waveform"
	"gonum.org/v1/gonum/mat"
)

// AmplitudeSample is the result of Gaussian-fitting one interference pulse
// window. Amplitude is the background-subtracted peak height. When the fit
// did not converge, Converged is false and Amplitude holds the raw
// peak-minus-background estimate instead of a fit parameter.
type AmplitudeSample struct {
	Amplitude  float64
	Center     float64
	Sigma      float64
	Background float64
	Converged  bool
}

// GaussianFitParams defines fit-iteration limits for FitGaussian
type GaussianFitParams struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultGaussianFitParams returns limits that converge reliably on narrow
// noisy pulses
func DefaultGaussianFitParams() GaussianFitParams {
	return GaussianFitParams{
		MaxIterations: 200,
		Tolerance:     1e-9,
	}
}

// FitGaussian fits f(t) = background + A·exp(−(t−µ)²/2σ²) to a pulse
// window by Levenberg-Marquardt. Pulsed interferometry data is noisy, so a
// non-converged fit is not an error: the sample is flagged degraded and
// carries the conservative raw estimate.
func FitGaussian(w waveform.Waveform, win waveform.PulseWindow, params GaussianFitParams) AmplitudeSample {
	times := w.Time[win.Start:win.End]
	values := w.Amplitude[win.Start:win.End]
	n := len(values)

	background := edgeBackground(values)
	rawAmplitude := win.PeakAmplitude - background

	fallback := AmplitudeSample{
		Amplitude:  rawAmplitude,
		Center:     w.Time[win.PeakIndex],
		Sigma:      0,
		Background: background,
		Converged:  false,
	}

	// Four parameters need at least five points.
	if n < 5 {
		return fallback
	}

	tLo, tHi := times[0], times[n-1]
	span := tHi - tLo
	if span <= 0 {
		return fallback
	}
	minSigma := span / float64(4*n)

	amp0 := rawAmplitude
	if amp0 <= 0 {
		amp0 = math.SmallestNonzeroFloat64
	}
	initial := []float64{amp0, w.Time[win.PeakIndex], span / 6, background}

	clamp := func(p []float64) {
		if p[0] < 0 {
			p[0] = 0
		}
		if p[1] < tLo {
			p[1] = tLo
		}
		if p[1] > tHi {
			p[1] = tHi
		}
		if p[2] < minSigma {
			p[2] = minSigma
		}
	}

	eval := func(p []float64) ([]float64, *mat.Dense) {
		amp, mu, sigma, bg := p[0], p[1], p[2], p[3]
		r := make([]float64, n)
		jac := mat.NewDense(n, 4, nil)
		for i := 0; i < n; i++ {
			dt := times[i] - mu
			e := math.Exp(-dt * dt / (2 * sigma * sigma))
			r[i] = values[i] - (bg + amp*e)
			jac.Set(i, 0, -e)
			jac.Set(i, 1, -amp*e*dt/(sigma*sigma))
			jac.Set(i, 2, -amp*e*dt*dt/(sigma*sigma*sigma))
			jac.Set(i, 3, -1)
		}
		return r, jac
	}

	fitted, ok := levenbergMarquardt(initial, eval, clamp, params.MaxIterations, params.Tolerance)
	if !ok || !allFinite(fitted) {
		return fallback
	}
	return AmplitudeSample{
		Amplitude:  fitted[0],
		Center:     fitted[1],
		Sigma:      fitted[2],
		Background: fitted[3],
		Converged:  true,
	}
}

// edgeBackground estimates the local background as the median of the
// window's edge samples, which a centered pulse does not reach.
func edgeBackground(values []float64) float64 {
	n := len(values)
	k := n / 8
	if k < 1 {
		k = 1
	}
	edges := make([]float64, 0, 2*k)
	edges = append(edges, values[:k]...)
	edges = append(edges, values[n-k:]...)
	sort.Float64s(edges)
	m := len(edges)
	if m%2 == 1 {
		return edges[m/2]
	}
	return (edges[m/2-1] + edges[m/2]) / 2
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
