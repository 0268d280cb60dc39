// Package report persists scan results as JSON, archives them in SQLite
// and prints the operator summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/1smaa/mzivis/internal/fringe"
	"github.com/1smaa/mzivis/internal/scan"
	"github.com/1smaa/mzivis/pkg/config"
)

// Point is one fringe-curve row in the persisted record
type Point struct {
	Temperature   float64 `json:"temperature"`
	MeanAmplitude float64 `json:"mean"`
	StdAmplitude  float64 `json:"std"`
	Repeats       int     `json:"n"`
}

// FitParams is the persisted cos² parameter set
type FitParams struct {
	A      float64 `json:"a"`
	B      float64 `json:"b"`
	K      float64 `json:"k"`
	Phi    float64 `json:"phi"`
	Period float64 `json:"period"`
}

// Record is the structured result of one scan run. FittedVisibility and
// Fit are null when the cos² fit failed.
type Record struct {
	RunID               string         `json:"run_id"`
	StartedAt           time.Time      `json:"started_at"`
	CompletedAt         time.Time      `json:"completed_at"`
	Data                []Point        `json:"data"`
	SkippedTemperatures []float64      `json:"skipped_temperatures,omitempty"`
	RawVisibility       float64        `json:"raw_visibility"`
	FittedVisibility    *float64       `json:"fitted_visibility"`
	Fit                 *FitParams     `json:"fit"`
	Settings            *config.Config `json:"settings,omitempty"`
}

// NewRecord flattens a scan result into its persisted form
func NewRecord(result *scan.Result, settings *config.Config) *Record {
	rec := &Record{
		RunID:               result.RunID,
		StartedAt:           result.StartedAt,
		CompletedAt:         result.CompletedAt,
		SkippedTemperatures: result.SkippedTemperatures,
		RawVisibility:       result.Report.RawVisibility,
		FittedVisibility:    result.Report.FittedVisibility,
		Settings:            settings,
	}
	for _, p := range result.Report.Curve {
		rec.Data = append(rec.Data, Point{
			Temperature:   p.Temperature,
			MeanAmplitude: p.MeanAmplitude,
			StdAmplitude:  p.StdAmplitude,
			Repeats:       p.Repeats,
		})
	}
	if fit := result.Report.Fit; fit != nil {
		rec.Fit = &FitParams{A: fit.A, B: fit.B, K: fit.K, Phi: fit.Phi, Period: fit.Period()}
	}
	return rec
}

// Curve rebuilds the fringe curve from a persisted record
func (r *Record) Curve() fringe.FringeCurve {
	curve := make(fringe.FringeCurve, 0, len(r.Data))
	for _, p := range r.Data {
		curve = append(curve, fringe.TemperaturePoint{
			Temperature:   p.Temperature,
			MeanAmplitude: p.MeanAmplitude,
			StdAmplitude:  p.StdAmplitude,
			Repeats:       p.Repeats,
		})
	}
	return curve
}

// Write stores the record as data.json in a timestamped directory under
// dir, mirroring the layout the acquisition rig has always used. Returns
// the path of the written file.
func Write(dir string, rec *Record) (string, error) {
	runDir := filepath.Join(dir, rec.StartedAt.Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	path := filepath.Join(runDir, "data.json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("writing results file: %w", err)
	}
	return path, nil
}

// Load reads a previously written record
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing results file %s: %w", path, err)
	}
	return &rec, nil
}

// Summarize prints the operator-facing two-line summary. Values outside
// [0,1] indicate a degenerate fit and are printed as-is.
func Summarize(w io.Writer, rec *Record) {
	fmt.Fprintf(w, "Raw Visibility: %.3f\n", rec.RawVisibility)
	if rec.FittedVisibility != nil {
		fmt.Fprintf(w, "Fitted Visibility: %.3f\n", *rec.FittedVisibility)
	} else {
		fmt.Fprintln(w, "Fitted Visibility: n/a (fit failed)")
	}
}
