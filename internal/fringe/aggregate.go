package fringe

// TemperaturePoint is the aggregated measurement at one temperature
// setpoint. Never mutated after being appended to the curve.
type TemperaturePoint struct {
	Temperature   float64
	MeanAmplitude float64
	StdAmplitude  float64
	Repeats       int
}

// FringeCurve is the ordered sequence of temperature points accumulated
// over a scan, in scan-visit order.
type FringeCurve []TemperaturePoint

// Temperatures returns the temperature axis of the curve
func (c FringeCurve) Temperatures() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Temperature
	}
	return out
}

// Means returns the mean-amplitude axis of the curve
func (c FringeCurve) Means() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.MeanAmplitude
	}
	return out
}

// Aggregator accumulates temperature points during a scan. Pure in-memory
// accumulation; the single scan goroutine is the only writer.
type Aggregator struct {
	points []TemperaturePoint
}

// Append records the aggregated amplitude at one setpoint. Points arrive in
// scan order; duplicate temperatures are kept as separate points.
func (a *Aggregator) Append(temperature, meanAmplitude, stdAmplitude float64, repeats int) {
	if repeats < 1 {
		repeats = 1
	}
	a.points = append(a.points, TemperaturePoint{
		Temperature:   temperature,
		MeanAmplitude: meanAmplitude,
		StdAmplitude:  stdAmplitude,
		Repeats:       repeats,
	})
}

// Len returns the number of accumulated points
func (a *Aggregator) Len() int {
	return len(a.points)
}

// Curve returns a copy of the accumulated curve
func (a *Aggregator) Curve() FringeCurve {
	return append(FringeCurve(nil), a.points...)
}
