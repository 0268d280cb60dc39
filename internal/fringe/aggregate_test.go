package fringe

import "testing"

func TestAggregator(t *testing.T) {
	var agg Aggregator
	agg.Append(20.0, 0.5, 0.01, 4)
	agg.Append(20.5, 0.7, 0.02, 4)
	agg.Append(20.5, 0.71, 0.02, 4) // duplicate temperature is kept
	agg.Append(21.0, 0.9, 0, 1)

	if agg.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", agg.Len())
	}

	curve := agg.Curve()
	if len(curve) != 4 {
		t.Fatalf("Curve() has %d points, want 4", len(curve))
	}
	if curve[1].Temperature != 20.5 || curve[2].Temperature != 20.5 {
		t.Error("duplicate temperature points were not preserved")
	}
	if curve[3].StdAmplitude != 0 || curve[3].Repeats != 1 {
		t.Errorf("single-repeat point = %+v, want std 0 and n 1", curve[3])
	}

	// The returned curve is a copy; later appends must not alias it.
	agg.Append(21.5, 1.0, 0.01, 4)
	if len(curve) != 4 {
		t.Error("Curve() result changed after a later Append")
	}
}
