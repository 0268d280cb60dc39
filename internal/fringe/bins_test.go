package fringe

import (
	"errors"
	"testing"

	"github.com/1smaa/mzivis/internal/waveform"
)

func windowsAt(peaks []int, amplitudes []float64) []waveform.PulseWindow {
	windows := make([]waveform.PulseWindow, len(peaks))
	for i, p := range peaks {
		windows[i] = waveform.PulseWindow{
			Start:         p - 5,
			End:           p + 5,
			PeakIndex:     p,
			PeakAmplitude: amplitudes[i],
		}
	}
	return windows
}

func TestClassifyBins(t *testing.T) {
	// The middle window is the interference bin regardless of how the
	// three amplitudes are ordered.
	amplitudeOrders := [][]float64{
		{1.0, 0.5, 0.8},
		{0.5, 1.0, 0.8},
		{0.8, 0.5, 1.0},
		{1.0, 1.0, 1.0},
	}

	for _, amps := range amplitudeOrders {
		windows := windowsAt([]int{50, 100, 150}, amps)
		bins, err := ClassifyBins(windows)
		if err != nil {
			t.Fatalf("ClassifyBins(%v) error = %v", amps, err)
		}
		if got := bins[BinInterference].PeakIndex; got != 100 {
			t.Errorf("ClassifyBins(%v) interference peak = %d, want 100", amps, got)
		}
		if got := bins[BinEarlyEarly].PeakIndex; got != 50 {
			t.Errorf("ClassifyBins(%v) early-early peak = %d, want 50", amps, got)
		}
		if got := bins[BinLateLate].PeakIndex; got != 150 {
			t.Errorf("ClassifyBins(%v) late-late peak = %d, want 150", amps, got)
		}
	}
}

func TestClassifyBinsCounts(t *testing.T) {
	tests := []struct {
		name    string
		peaks   []int
		wantErr error
	}{
		{name: "no windows", peaks: nil, wantErr: ErrAmbiguousBin},
		{name: "one window", peaks: []int{100}, wantErr: ErrAmbiguousBin},
		{name: "two windows", peaks: []int{50, 150}, wantErr: ErrAmbiguousBin},
		{name: "four windows", peaks: []int{25, 75, 125, 175}, wantErr: ErrUnexpectedBinCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amps := make([]float64, len(tt.peaks))
			for i := range amps {
				amps[i] = 1
			}
			_, err := ClassifyBins(windowsAt(tt.peaks, amps))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ClassifyBins() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBinLabelString(t *testing.T) {
	if got := BinInterference.String(); got != "interference" {
		t.Errorf("BinInterference.String() = %q", got)
	}
	if got := BinUnknown.String(); got != "unknown" {
		t.Errorf("BinUnknown.String() = %q", got)
	}
}
