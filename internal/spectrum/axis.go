package spectrum

import "github.com/verte-zerg/dsc2asc/internal/model"

// Axis returns the angle of each of count samples: start + i*step.
// A zero or negative step is reproduced as-is.
func Axis(iv model.ScanInterval, count int) []float64 {
	if count <= 0 {
		return []float64{}
	}
	xs := make([]float64, count)
	for i := range xs {
		xs[i] = iv.Start + float64(i)*iv.Step
	}
	return xs
}

// Widen converts decoded samples to float64 for plotting.
func Widen(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
