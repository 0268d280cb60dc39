// Package waveform holds the acquired-waveform data model and the pulse
// segmentation used to locate the three time-separated bins of the MZI
// pulse train.
package waveform

import (
	"errors"
	"fmt"
)

// ErrEmptyWaveform is returned when an operation receives a waveform with
// no samples.
var ErrEmptyWaveform = errors.New("empty waveform")

// Waveform is an ordered sequence of (time, amplitude) samples. Time and
// Amplitude are parallel slices; time is strictly increasing. A Waveform is
// not mutated after construction.
type Waveform struct {
	Time      []float64
	Amplitude []float64
}

// New validates and builds a Waveform from parallel time/amplitude slices
func New(times, amplitudes []float64) (Waveform, error) {
	if len(times) == 0 || len(amplitudes) == 0 {
		return Waveform{}, ErrEmptyWaveform
	}
	if len(times) != len(amplitudes) {
		return Waveform{}, fmt.Errorf("time/amplitude length mismatch: %d vs %d", len(times), len(amplitudes))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return Waveform{}, fmt.Errorf("time axis not strictly increasing at sample %d", i)
		}
	}
	return Waveform{Time: times, Amplitude: amplitudes}, nil
}

// FromSamples builds a Waveform from amplitude samples on a uniform
// timebase starting at zero. This is the shape scope drivers produce: the
// instrument reports only the sample interval.
func FromSamples(amplitudes []float64, sampleInterval float64) (Waveform, error) {
	if len(amplitudes) == 0 {
		return Waveform{}, ErrEmptyWaveform
	}
	if sampleInterval <= 0 {
		return Waveform{}, fmt.Errorf("sample interval must be positive, got %g", sampleInterval)
	}
	times := make([]float64, len(amplitudes))
	for i := range times {
		times[i] = float64(i) * sampleInterval
	}
	return Waveform{Time: times, Amplitude: amplitudes}, nil
}

// Len returns the number of samples
func (w Waveform) Len() int {
	return len(w.Amplitude)
}

// Slice returns the sub-waveform [start, end). Bounds must be valid.
func (w Waveform) Slice(start, end int) Waveform {
	return Waveform{Time: w.Time[start:end], Amplitude: w.Amplitude[start:end]}
}

// ChunkPeriods splits an acquisition into consecutive pulse-train periods of
// periodSamples samples each. The first period is dropped: the scope trigger
// is not aligned to the train, so the leading chunk may start mid-pulse. A
// trailing partial period is kept; downstream processing skips chunks too
// short to contain the three bins.
func ChunkPeriods(w Waveform, periodSamples int) ([]Waveform, error) {
	if w.Len() == 0 {
		return nil, ErrEmptyWaveform
	}
	if periodSamples <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d samples", periodSamples)
	}

	var chunks []Waveform
	for start := 0; start < w.Len(); start += periodSamples {
		end := start + periodSamples
		if end > w.Len() {
			end = w.Len()
		}
		chunks = append(chunks, w.Slice(start, end))
	}
	if len(chunks) <= 1 {
		return nil, nil
	}
	return chunks[1:], nil
}
