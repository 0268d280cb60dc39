// Package scan drives the temperature sweep: for each setpoint it settles
// the TEC, aggregates repeated acquisitions into a fringe-curve point, and
// finishes by computing raw and fitted visibility.
package scan

import (
	"context"
	"errors"
	"time"

	"github.com/1smaa/mzivis/internal/fringe"
	"github.com/1smaa/mzivis/internal/instruments"
	"github.com/1smaa/mzivis/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is the outcome of one complete scan
type Result struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	Report      fringe.VisibilityReport

	// SkippedTemperatures lists setpoints that produced no valid
	// amplitude. They are absent from the curve, not interpolated.
	SkippedTemperatures []float64
}

// Engine owns the instruments and the processor for the duration of a scan
type Engine struct {
	osc    instruments.Oscilloscope
	tec    instruments.TemperatureController
	proc   *fringe.Processor
	cfg    *config.Config
	logger *zap.SugaredLogger
}

// New assembles a scan engine
func New(osc instruments.Oscilloscope, tec instruments.TemperatureController, proc *fringe.Processor, cfg *config.Config, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		osc:    osc,
		tec:    tec,
		proc:   proc,
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes the sweep sequentially: one waveform is fully processed
// before the next acquisition begins. A setpoint where every repeat fails
// is logged and skipped; structural failures (empty waveforms, ambiguous
// bins) indicate a configuration or hardware mismatch and abort the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	e.logger.Infof("starting visibility scan %s: %.3f → %.3f °C step %.3f, %d repeats",
		result.RunID, e.cfg.Scan.Start, e.cfg.Scan.End, e.cfg.Scan.Step, e.cfg.Scan.Repeats)

	var agg fringe.Aggregator
	for t := e.cfg.Scan.Start; t < e.cfg.Scan.End; t += e.cfg.Scan.Step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := e.tec.SetTemperature(ctx, t); err != nil {
			return nil, err
		}
		if err := e.tec.WaitStable(ctx, t); err != nil {
			return nil, err
		}

		mean, std, n, err := e.proc.ProcessRepeated(ctx, e.osc, e.cfg.Scan.Repeats)
		if err != nil {
			if errors.Is(err, fringe.ErrNoValidAmplitude) {
				e.logger.Warnf("no valid amplitude at %.3f °C, skipping setpoint", t)
				result.SkippedTemperatures = append(result.SkippedTemperatures, t)
				continue
			}
			return nil, err
		}

		e.logger.Debugf("T=%.3f °C: amplitude %.6f ± %.6f over %d pulses", t, mean, std, n)
		agg.Append(t, mean, std, n)
	}

	curve := agg.Curve()
	raw, err := fringe.RawVisibility(curve)
	if err != nil {
		return nil, err
	}
	result.Report = fringe.VisibilityReport{
		RawVisibility: raw,
		Curve:         curve,
	}

	fit, err := fringe.FitCos2(curve, fringe.DefaultCosFitParams())
	if err != nil {
		// The raw visibility stands on its own; report the fit failure
		// clearly instead of a garbage number.
		e.logger.Warnf("cos² fringe fit failed: %v", err)
	} else {
		v := fit.Visibility()
		result.Report.Fit = &fit
		result.Report.FittedVisibility = &v
	}

	result.CompletedAt = time.Now()
	return result, nil
}
