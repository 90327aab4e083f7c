package complexity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// zScores standardizes values with the mean and sample standard deviation of
// the finite entries. Non-finite inputs stay NaN.
func zScores(values []float64) []float64 {
	var finite []float64
	for _, v := range values {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}

	out := make([]float64, len(values))
	if len(finite) < 2 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	mean, sd := stat.MeanStdDev(finite, nil)
	for i, v := range values {
		if !isFinite(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - mean) / sd
	}
	return out
}

// median of the finite values, averaging the two middle ones for even
// counts. NaN when nothing is finite.
func median(values []float64) float64 {
	var finite []float64
	for _, v := range values {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	mid := len(finite) / 2
	if len(finite)%2 == 1 {
		return finite[mid]
	}
	return (finite[mid-1] + finite[mid]) / 2
}
