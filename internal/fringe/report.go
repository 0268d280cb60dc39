package fringe

// VisibilityReport is the terminal artifact of a scan: both visibility
// figures, the fit parameters and the curve they were derived from.
// FittedVisibility and Fit are nil when the cos² fit failed; the raw
// visibility is reported regardless.
type VisibilityReport struct {
	RawVisibility    float64
	FittedVisibility *float64
	Fit              *CosFitResult
	Curve            FringeCurve
}
