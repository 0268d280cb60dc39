package fringe

import (
	"context"
	"fmt"

	"github.com/1smaa/mzivis/internal/waveform"
	"github.com/1smaa/mzivis/pkg/config"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Acquirer is the acquisition collaborator the processor drives when
// aggregating repeated measurements.
type Acquirer interface {
	AcquireWaveform(ctx context.Context) (waveform.Waveform, error)
}

// Processor runs segment → classify → fit for acquired waveforms and
// aggregates amplitudes over repeated acquisitions at one setpoint.
type Processor struct {
	segment       waveform.SegmentParams
	gaussian      GaussianFitParams
	periodSamples int
	strict        bool
	logger        *zap.SugaredLogger
}

// NewProcessor builds a Processor from the processing configuration
func NewProcessor(cfg config.ProcessingConfig, logger *zap.SugaredLogger) *Processor {
	segment := waveform.DefaultSegmentParams()
	segment.MinSeparation = cfg.MinSeparationSamples()
	segment.HalfWidth = cfg.DelaySamples()
	if cfg.NoiseFloor > 0 {
		segment.NoiseFloor = cfg.NoiseFloor
	}

	return &Processor{
		segment:       segment,
		gaussian:      DefaultGaussianFitParams(),
		periodSamples: cfg.PeriodSamples(),
		strict:        cfg.StrictFits,
		logger:        logger,
	}
}

// ProcessWaveform extracts the interference-bin amplitude from a single
// pulse-train period. Structural failures (empty input, ambiguous bins)
// propagate; fit failures degrade the sample instead.
func (p *Processor) ProcessWaveform(w waveform.Waveform) (AmplitudeSample, error) {
	windows, err := waveform.Segment(w, p.segment)
	if err != nil {
		return AmplitudeSample{}, err
	}
	win, err := SelectInterference(windows)
	if err != nil {
		return AmplitudeSample{}, err
	}
	return FitGaussian(w, win, p.gaussian), nil
}

// ProcessAcquisition splits one scope record into pulse-train periods and
// extracts an amplitude sample from each full period.
func (p *Processor) ProcessAcquisition(w waveform.Waveform) ([]AmplitudeSample, error) {
	chunks, err := waveform.ChunkPeriods(w, p.periodSamples)
	if err != nil {
		return nil, err
	}

	var samples []AmplitudeSample
	for _, chunk := range chunks {
		if chunk.Len() < p.periodSamples {
			// Trailing partial period cannot contain all three bins.
			continue
		}
		sample, err := p.ProcessWaveform(chunk)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

// ProcessRepeated acquires and processes repeats waveforms and aggregates
// the amplitudes into mean and sample standard deviation (zero when a
// single amplitude survives). Degraded samples are included in the
// aggregate unless strict fitting is configured; either way they are
// counted and logged. When nothing usable survives, ErrNoValidAmplitude is
// returned.
func (p *Processor) ProcessRepeated(ctx context.Context, acq Acquirer, repeats int) (mean, std float64, n int, err error) {
	if repeats < 1 {
		repeats = 1
	}

	var amplitudes []float64
	total := 0
	degraded := 0
	for i := 0; i < repeats; i++ {
		select {
		case <-ctx.Done():
			return 0, 0, 0, ctx.Err()
		default:
		}

		w, err := acq.AcquireWaveform(ctx)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("acquisition %d/%d: %w", i+1, repeats, err)
		}

		samples, err := p.ProcessAcquisition(w)
		if err != nil {
			return 0, 0, 0, err
		}
		for _, s := range samples {
			total++
			if !s.Converged {
				degraded++
				if p.strict {
					continue
				}
			}
			amplitudes = append(amplitudes, s.Amplitude)
		}
	}

	if degraded > 0 {
		p.logger.Warnf("%d of %d pulse fits did not converge", degraded, total)
	}
	if len(amplitudes) == 0 {
		return 0, 0, 0, ErrNoValidAmplitude
	}

	mean = stat.Mean(amplitudes, nil)
	if len(amplitudes) >= 2 {
		std = stat.StdDev(amplitudes, nil)
	}
	return mean, std, len(amplitudes), nil
}
