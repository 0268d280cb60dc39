// Package fringe implements the visibility-extraction pipeline: bin
// classification, Gaussian amplitude fitting, per-setpoint aggregation and
// the cos² fringe fit.
package fringe

import (
	"errors"
	"fmt"

	"github.com/1smaa/mzivis/internal/waveform"
)

var (
	// ErrAmbiguousBin is returned when fewer than three pulse windows were
	// detected and the interference bin cannot be identified.
	ErrAmbiguousBin = errors.New("ambiguous pulse bins")

	// ErrUnexpectedBinCount is returned when more pulse windows arrive than
	// the segmenter contract allows.
	ErrUnexpectedBinCount = errors.New("unexpected pulse bin count")

	// ErrNoValidAmplitude is returned when every repeat at a setpoint
	// failed to produce an amplitude.
	ErrNoValidAmplitude = errors.New("no valid amplitude")

	// ErrInsufficientData is returned when the fringe curve has too few
	// distinct temperature points for a cos² fit.
	ErrInsufficientData = errors.New("insufficient fringe data")

	// ErrFitDivergence is returned when the cos² fit fails to converge.
	ErrFitDivergence = errors.New("fringe fit diverged")
)

// BinLabel identifies the role of a pulse window within the three-pulse
// train produced by the unbalanced MZI.
type BinLabel int

const (
	BinUnknown BinLabel = iota
	BinEarlyEarly
	BinInterference
	BinLateLate
)

func (b BinLabel) String() string {
	switch b {
	case BinEarlyEarly:
		return "early-early"
	case BinInterference:
		return "interference"
	case BinLateLate:
		return "late-late"
	}
	return "unknown"
}

// ClassifyBins assigns bin labels to time-ordered pulse windows. The
// assignment is positional: the interference pulse sits temporally between
// the two non-interfering pulses regardless of relative amplitude. Exactly
// three windows are required.
func ClassifyBins(windows []waveform.PulseWindow) (map[BinLabel]waveform.PulseWindow, error) {
	if len(windows) < 3 {
		return nil, fmt.Errorf("%w: detected %d of 3 pulses", ErrAmbiguousBin, len(windows))
	}
	if len(windows) > 3 {
		return nil, fmt.Errorf("%w: detected %d pulses, expected 3", ErrUnexpectedBinCount, len(windows))
	}
	return map[BinLabel]waveform.PulseWindow{
		BinEarlyEarly:   windows[0],
		BinInterference: windows[1],
		BinLateLate:     windows[2],
	}, nil
}

// SelectInterference classifies the windows and returns only the
// interference window; the early-early and late-late bins exist solely to
// disambiguate its position.
func SelectInterference(windows []waveform.PulseWindow) (waveform.PulseWindow, error) {
	bins, err := ClassifyBins(windows)
	if err != nil {
		return waveform.PulseWindow{}, err
	}
	return bins[BinInterference], nil
}
