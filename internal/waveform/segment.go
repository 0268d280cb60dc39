package waveform

import "sort"

// PulseWindow is a contiguous sub-range [Start, End) of a waveform centered
// on a detected pulse peak. Produced by Segment; read-only afterwards.
type PulseWindow struct {
	Start         int
	End           int
	PeakIndex     int
	PeakAmplitude float64
}

// SegmentParams defines parameters for pulse peak detection
type SegmentParams struct {
	// ExpectedBins is the number of pulse windows to keep when more peaks
	// are detected (the largest ones win, re-sorted by time).
	ExpectedBins int

	// MinSeparation is the minimum distance between peaks in samples;
	// peaks closer than this are merged, keeping the larger.
	MinSeparation int

	// HalfWidth is the number of samples retained on each side of a peak.
	HalfWidth int

	// NoiseFloor is the detection threshold as a fraction of the
	// baseline-to-maximum excursion (0 to 1). The baseline is the median
	// amplitude, which makes the threshold insensitive to DC offset.
	NoiseFloor float64
}

// DefaultSegmentParams returns parameters suited to the three-bin MZI train
func DefaultSegmentParams() SegmentParams {
	return SegmentParams{
		ExpectedBins:  3,
		MinSeparation: 2,
		HalfWidth:     8,
		NoiseFloor:    0.2,
	}
}

// Segment detects pulse peaks in a waveform and returns their windows in
// time order. An empty waveform is an error; a degenerate (flat) waveform
// returns zero windows. Fewer windows than ExpectedBins means
// under-detection, which the caller must decide how to handle.
func Segment(w Waveform, params SegmentParams) ([]PulseWindow, error) {
	n := w.Len()
	if n == 0 {
		return nil, ErrEmptyWaveform
	}

	baseline := median(w.Amplitude)
	max := w.Amplitude[0]
	for _, v := range w.Amplitude[1:] {
		if v > max {
			max = v
		}
	}
	if max <= baseline {
		// Flat or all-equal waveform: nothing to detect.
		return nil, nil
	}
	threshold := baseline + params.NoiseFloor*(max-baseline)

	peaks := localMaxima(w.Amplitude, threshold)
	peaks = mergeClosePeaks(peaks, w.Amplitude, params.MinSeparation)

	if params.ExpectedBins > 0 && len(peaks) > params.ExpectedBins {
		// Keep the largest peaks, then restore time order.
		sort.Slice(peaks, func(i, j int) bool {
			return w.Amplitude[peaks[i]] > w.Amplitude[peaks[j]]
		})
		peaks = peaks[:params.ExpectedBins]
		sort.Ints(peaks)
	}

	windows := make([]PulseWindow, 0, len(peaks))
	for _, p := range peaks {
		start := p - params.HalfWidth
		if start < 0 {
			start = 0
		}
		end := p + params.HalfWidth
		if end > n {
			end = n
		}
		windows = append(windows, PulseWindow{
			Start:         start,
			End:           end,
			PeakIndex:     p,
			PeakAmplitude: w.Amplitude[p],
		})
	}
	return windows, nil
}

// localMaxima returns indices of samples that are strict local maxima at or
// above the threshold. A plateau counts once, at its left edge.
func localMaxima(amplitudes []float64, threshold float64) []int {
	var peaks []int
	n := len(amplitudes)
	for i := 1; i < n-1; i++ {
		if amplitudes[i] < threshold {
			continue
		}
		if amplitudes[i] > amplitudes[i-1] && amplitudes[i] >= amplitudes[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// mergeClosePeaks collapses peaks closer than minSeparation samples into the
// larger of the pair. Input and output are in ascending index order.
func mergeClosePeaks(peaks []int, amplitudes []float64, minSeparation int) []int {
	if len(peaks) < 2 || minSeparation <= 1 {
		return peaks
	}
	merged := []int{peaks[0]}
	for _, p := range peaks[1:] {
		last := merged[len(merged)-1]
		if p-last < minSeparation {
			if amplitudes[p] > amplitudes[last] {
				merged[len(merged)-1] = p
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
