// Package simulated provides in-process oscilloscope and temperature
// controller implementations for tests and dry runs. The simulated scope
// emits the three-pulse MZI train with the middle pulse following a cos²
// fringe law of the simulated chip temperature.
package simulated

import (
	"context"
	"math"
	"math/rand"

	"github.com/1smaa/mzivis/internal/waveform"
	"go.uber.org/zap"
)

// BenchParams describes the simulated optical bench
type BenchParams struct {
	// Fringe law for the interference-pulse amplitude:
	// A + B·cos²(K·T + Phi) volts at chip temperature T.
	FringeA   float64
	FringeB   float64
	FringeK   float64
	FringePhi float64

	// SidePulseAmplitude is the height of the two non-interfering pulses.
	SidePulseAmplitude float64

	// Background is the DC offset of the trace.
	Background float64

	// NoiseSigma is the per-sample additive Gaussian noise.
	NoiseSigma float64

	// SampleInterval is the simulated scope timebase in seconds.
	SampleInterval float64

	// PeriodSamples is the pulse-train period; each period carries three
	// Gaussian pulses of PulseSigma samples width.
	PeriodSamples int
	Periods       int
	PulseSigma    float64

	Seed int64
}

// DefaultBenchParams returns a bench with a visible fringe and mild noise
func DefaultBenchParams() BenchParams {
	return BenchParams{
		FringeA:            0.2,
		FringeB:            1.0,
		FringeK:            math.Pi / 5,
		FringePhi:          0,
		SidePulseAmplitude: 0.8,
		Background:         0.05,
		NoiseSigma:         0.01,
		SampleInterval:     1e-9,
		PeriodSamples:      120,
		Periods:            8,
		PulseSigma:         3,
		Seed:               1,
	}
}

// Bench couples a simulated scope and TEC: the scope's interference
// amplitude depends on the TEC setpoint. Single-threaded like the scan
// loop that drives it.
type Bench struct {
	params      BenchParams
	temperature float64
	rng         *rand.Rand
	logger      *zap.SugaredLogger
}

// NewBench creates a bench at 25 °C
func NewBench(params BenchParams, logger *zap.SugaredLogger) *Bench {
	return &Bench{
		params:      params,
		temperature: 25,
		rng:         rand.New(rand.NewSource(params.Seed)),
		logger:      logger,
	}
}

// InterferenceAmplitude returns the noise-free fringe law at temperature t
func (b *Bench) InterferenceAmplitude(t float64) float64 {
	p := b.params
	c := math.Cos(p.FringeK*t + p.FringePhi)
	return p.FringeA + p.FringeB*c*c
}

// GroundTruthVisibility returns B/(2A+B) of the configured fringe law
func (b *Bench) GroundTruthVisibility() float64 {
	return b.params.FringeB / (2*b.params.FringeA + b.params.FringeB)
}

// Oscilloscope returns the scope half of the bench
func (b *Bench) Oscilloscope() *Scope {
	return &Scope{bench: b}
}

// TemperatureController returns the TEC half of the bench
func (b *Bench) TemperatureController() *TEC {
	return &TEC{bench: b}
}

// Scope is the simulated oscilloscope
type Scope struct {
	bench *Bench
}

// AcquireWaveform synthesizes one record of the three-pulse train
func (s *Scope) AcquireWaveform(ctx context.Context) (waveform.Waveform, error) {
	if err := ctx.Err(); err != nil {
		return waveform.Waveform{}, err
	}

	b := s.bench
	p := b.params
	n := p.PeriodSamples * p.Periods
	amplitudes := make([]float64, n)

	interference := b.InterferenceAmplitude(b.temperature)
	// Pulse centers at 1/4, 1/2 and 3/4 of each period: early-early,
	// interference, late-late.
	centers := []float64{0.25, 0.5, 0.75}
	heights := []float64{p.SidePulseAmplitude, interference, p.SidePulseAmplitude}

	for i := 0; i < n; i++ {
		v := p.Background
		inPeriod := float64(i % p.PeriodSamples)
		for j, c := range centers {
			d := inPeriod - c*float64(p.PeriodSamples)
			v += heights[j] * math.Exp(-d*d/(2*p.PulseSigma*p.PulseSigma))
		}
		if p.NoiseSigma > 0 {
			v += b.rng.NormFloat64() * p.NoiseSigma
		}
		amplitudes[i] = v
	}

	return waveform.FromSamples(amplitudes, p.SampleInterval)
}

// Close implements the oscilloscope interface
func (s *Scope) Close() error {
	return nil
}

// TEC is the simulated temperature controller; it settles instantly
type TEC struct {
	bench *Bench
}

// SetTemperature moves the simulated chip to the setpoint
func (t *TEC) SetTemperature(ctx context.Context, celsius float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.bench.temperature = celsius
	return nil
}

// ReadTemperature returns the simulated chip temperature
func (t *TEC) ReadTemperature(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.bench.temperature, nil
}

// WaitStable returns immediately; the simulated chip has no thermal mass
func (t *TEC) WaitStable(ctx context.Context, target float64) error {
	return ctx.Err()
}

// Close implements the controller interface
func (t *TEC) Close() error {
	return nil
}
