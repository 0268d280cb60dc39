// Command mzivis-replay recomputes the visibility figures from a saved
// results file, so fringe curves can be re-analyzed after fit-parameter
// changes without re-running the scan.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/1smaa/mzivis/internal/fringe"
	"github.com/1smaa/mzivis/internal/report"
)

func main() {
	input := flag.String("input", "", "Path to a data.json produced by mzivis")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: mzivis-replay -input <path to data.json>")
		os.Exit(1)
	}

	rec, err := report.Load(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load results: %v\n", err)
		os.Exit(1)
	}

	curve := rec.Curve()
	if len(curve) == 0 {
		fmt.Fprintln(os.Stderr, "No fringe data in results file.")
		os.Exit(1)
	}

	raw, err := fringe.RawVisibility(curve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compute raw visibility: %v\n", err)
		os.Exit(1)
	}
	rec.RawVisibility = raw
	rec.FittedVisibility = nil
	rec.Fit = nil

	fit, err := fringe.FitCos2(curve, fringe.DefaultCosFitParams())
	switch {
	case err == nil:
		v := fit.Visibility()
		rec.FittedVisibility = &v
		rec.Fit = &report.FitParams{A: fit.A, B: fit.B, K: fit.K, Phi: fit.Phi, Period: fit.Period()}
	case errors.Is(err, fringe.ErrInsufficientData), errors.Is(err, fringe.ErrFitDivergence):
		fmt.Fprintf(os.Stderr, "cos² fit failed: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Failed to fit fringe: %v\n", err)
		os.Exit(1)
	}

	report.Summarize(os.Stdout, rec)
}
