// Package instruments defines the oscilloscope and temperature-controller
// collaborators the scan drives. Concrete drivers live in subpackages.
package instruments

import (
	"context"
	"errors"

	"github.com/1smaa/mzivis/internal/waveform"
)

// ErrAcquisition marks instrument communication failures. The core treats
// them as fatal for the affected sample; retry policy, if any, belongs to
// the orchestration layer.
var ErrAcquisition = errors.New("instrument acquisition failure")

// Oscilloscope acquires one waveform per call
type Oscilloscope interface {
	AcquireWaveform(ctx context.Context) (waveform.Waveform, error)
	Close() error
}

// TemperatureController sets and reads the chip temperature
type TemperatureController interface {
	SetTemperature(ctx context.Context, celsius float64) error
	ReadTemperature(ctx context.Context) (float64, error)
	WaitStable(ctx context.Context, target float64) error
	Close() error
}
