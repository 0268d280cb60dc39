package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1smaa/mzivis/internal/fringe"
	"github.com/1smaa/mzivis/internal/scan"
)

func testResult() *scan.Result {
	v := 0.42
	fit := fringe.CosFitResult{A: 2, B: 3, K: 0.628, Phi: 0}
	return &scan.Result{
		RunID:       "test-run",
		StartedAt:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		CompletedAt: time.Date(2026, 3, 14, 15, 19, 26, 0, time.UTC),
		Report: fringe.VisibilityReport{
			RawVisibility:    0.37,
			FittedVisibility: &v,
			Fit:              &fit,
			Curve: fringe.FringeCurve{
				{Temperature: 20, MeanAmplitude: 5, StdAmplitude: 0.1, Repeats: 4},
				{Temperature: 21, MeanAmplitude: 3, StdAmplitude: 0.2, Repeats: 4},
			},
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	rec := NewRecord(testResult(), nil)
	dir := t.TempDir()

	path, err := Write(dir, rec)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if filepath.Base(path) != "data.json" {
		t.Errorf("Write() path = %s, want a data.json", path)
	}
	if !strings.Contains(path, "20260314_150926") {
		t.Errorf("Write() path = %s, want timestamped run directory", path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RunID != rec.RunID {
		t.Errorf("loaded run ID = %s, want %s", loaded.RunID, rec.RunID)
	}
	if len(loaded.Data) != 2 {
		t.Fatalf("loaded %d points, want 2", len(loaded.Data))
	}
	if loaded.FittedVisibility == nil || *loaded.FittedVisibility != 0.42 {
		t.Errorf("loaded fitted visibility = %v, want 0.42", loaded.FittedVisibility)
	}

	curve := loaded.Curve()
	if len(curve) != 2 || curve[1].MeanAmplitude != 3 {
		t.Errorf("rebuilt curve = %+v", curve)
	}
}

func TestSummarize(t *testing.T) {
	rec := NewRecord(testResult(), nil)

	var buf bytes.Buffer
	Summarize(&buf, rec)
	out := buf.String()
	if !strings.Contains(out, "Raw Visibility: 0.370") {
		t.Errorf("summary missing raw visibility: %q", out)
	}
	if !strings.Contains(out, "Fitted Visibility: 0.420") {
		t.Errorf("summary missing fitted visibility: %q", out)
	}

	// A failed fit reports n/a rather than a number.
	rec.FittedVisibility = nil
	buf.Reset()
	Summarize(&buf, rec)
	if !strings.Contains(buf.String(), "n/a") {
		t.Errorf("summary for failed fit = %q, want n/a", buf.String())
	}
}

func TestArchiveSaveRun(t *testing.T) {
	archive, err := OpenArchive(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenArchive() error = %v", err)
	}
	defer archive.Close()

	rec := NewRecord(testResult(), nil)
	if err := archive.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	var runs, points int
	if err := archive.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := archive.db.QueryRow("SELECT COUNT(*) FROM points").Scan(&points); err != nil {
		t.Fatal(err)
	}
	if runs != 1 || points != 2 {
		t.Errorf("archive has %d runs and %d points, want 1 and 2", runs, points)
	}
}
