package fringe

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/1smaa/mzivis/internal/waveform"
	"github.com/1smaa/mzivis/pkg/config"
	"go.uber.org/zap"
)

func testProcessingConfig() config.ProcessingConfig {
	return config.ProcessingConfig{
		SamplingRate:  1,
		PulsePeriod:   100,
		Delay:         16,
		NoiseFloor:    0.2,
		MinSeparation: 8,
	}
}

// trainAcquirer synthesizes one two-period pulse train per acquisition,
// with the interference amplitude taken from the next entry of amplitudes.
// The first period is discarded by chunking, so each acquisition yields
// exactly one amplitude sample.
type trainAcquirer struct {
	amplitudes []float64
	call       int
}

func (a *trainAcquirer) AcquireWaveform(ctx context.Context) (waveform.Waveform, error) {
	amp := a.amplitudes[a.call%len(a.amplitudes)]
	a.call++

	const period = 100
	samples := make([]float64, 2*period)
	for i := range samples {
		in := float64(i % period)
		v := 0.0
		for _, pulse := range []struct{ center, height float64 }{
			{25, 9}, {50, amp}, {75, 9},
		} {
			d := in - pulse.center
			v += pulse.height * math.Exp(-d*d/8)
		}
		samples[i] = v
	}
	return waveform.FromSamples(samples, 1)
}

// flatAcquirer returns a waveform with no pulses at all
type flatAcquirer struct{}

func (flatAcquirer) AcquireWaveform(ctx context.Context) (waveform.Waveform, error) {
	samples := make([]float64, 200)
	for i := range samples {
		samples[i] = 0.7
	}
	return waveform.FromSamples(samples, 1)
}

// shortAcquirer returns a record shorter than one pulse-train period
type shortAcquirer struct{}

func (shortAcquirer) AcquireWaveform(ctx context.Context) (waveform.Waveform, error) {
	return waveform.FromSamples(make([]float64, 50), 1)
}

func TestProcessRepeatedAggregation(t *testing.T) {
	proc := NewProcessor(testProcessingConfig(), zap.NewNop().Sugar())
	acq := &trainAcquirer{amplitudes: []float64{10, 12, 11, 13}}

	mean, std, n, err := proc.ProcessRepeated(context.Background(), acq, 4)
	if err != nil {
		t.Fatalf("ProcessRepeated() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ProcessRepeated() n = %d, want 4", n)
	}
	if math.Abs(mean-11.5) > 0.01 {
		t.Errorf("mean = %v, want 11.5", mean)
	}
	// Sample standard deviation (ddof=1) of {10, 12, 11, 13}.
	if math.Abs(std-1.29099) > 0.01 {
		t.Errorf("std = %v, want ≈1.291", std)
	}
}

func TestProcessRepeatedSingleSample(t *testing.T) {
	proc := NewProcessor(testProcessingConfig(), zap.NewNop().Sugar())
	acq := &trainAcquirer{amplitudes: []float64{10}}

	_, std, n, err := proc.ProcessRepeated(context.Background(), acq, 1)
	if err != nil {
		t.Fatalf("ProcessRepeated() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if std != 0 {
		t.Errorf("std = %v, want 0 for a single sample", std)
	}
}

func TestProcessRepeatedNoValidAmplitude(t *testing.T) {
	proc := NewProcessor(testProcessingConfig(), zap.NewNop().Sugar())

	_, _, _, err := proc.ProcessRepeated(context.Background(), shortAcquirer{}, 3)
	if !errors.Is(err, ErrNoValidAmplitude) {
		t.Errorf("ProcessRepeated() error = %v, want ErrNoValidAmplitude", err)
	}
}

func TestProcessRepeatedPropagatesStructuralErrors(t *testing.T) {
	proc := NewProcessor(testProcessingConfig(), zap.NewNop().Sugar())

	// A flat trace segments to zero windows; the classifier cannot
	// identify the interference bin and the failure must surface.
	_, _, _, err := proc.ProcessRepeated(context.Background(), flatAcquirer{}, 2)
	if !errors.Is(err, ErrAmbiguousBin) {
		t.Errorf("ProcessRepeated() error = %v, want ErrAmbiguousBin", err)
	}
}

func TestProcessWaveformSelectsMiddlePulse(t *testing.T) {
	proc := NewProcessor(testProcessingConfig(), zap.NewNop().Sugar())
	acq := &trainAcquirer{amplitudes: []float64{4}}

	w, err := acq.AcquireWaveform(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := waveform.ChunkPeriods(w, 100)
	if err != nil {
		t.Fatal(err)
	}

	sample, err := proc.ProcessWaveform(chunks[0])
	if err != nil {
		t.Fatalf("ProcessWaveform() error = %v", err)
	}
	if !sample.Converged {
		t.Fatal("fit did not converge on a noise-free train")
	}
	// The side pulses are taller (9 > 4); position, not amplitude, must
	// pick the interference bin.
	if math.Abs(sample.Amplitude-4) > 0.01 {
		t.Errorf("amplitude = %v, want 4 (the middle pulse)", sample.Amplitude)
	}
}
