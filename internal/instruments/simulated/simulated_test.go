package simulated

import (
	"context"
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestBenchWaveformShape(t *testing.T) {
	params := DefaultBenchParams()
	params.NoiseSigma = 0
	bench := NewBench(params, zap.NewNop().Sugar())

	w, err := bench.Oscilloscope().AcquireWaveform(context.Background())
	if err != nil {
		t.Fatalf("AcquireWaveform() error = %v", err)
	}
	if w.Len() != params.PeriodSamples*params.Periods {
		t.Fatalf("record length = %d, want %d", w.Len(), params.PeriodSamples*params.Periods)
	}

	// The middle pulse of each period must carry the fringe-law amplitude
	// above background.
	mid := params.PeriodSamples + params.PeriodSamples/2
	want := params.Background + bench.InterferenceAmplitude(25)
	if math.Abs(w.Amplitude[mid]-want) > 1e-9 {
		t.Errorf("interference peak = %v, want %v", w.Amplitude[mid], want)
	}
}

func TestBenchFringeLaw(t *testing.T) {
	bench := NewBench(DefaultBenchParams(), zap.NewNop().Sugar())
	tec := bench.TemperatureController()

	if err := tec.SetTemperature(context.Background(), 27.5); err != nil {
		t.Fatal(err)
	}
	got, err := tec.ReadTemperature(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != 27.5 {
		t.Errorf("ReadTemperature() = %v, want 27.5", got)
	}

	// B/(2A+B) for the default law A=0.2, B=1.
	if v := bench.GroundTruthVisibility(); math.Abs(v-1.0/1.4) > 1e-12 {
		t.Errorf("GroundTruthVisibility() = %v, want %v", v, 1.0/1.4)
	}
}
