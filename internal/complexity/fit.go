package complexity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AddDensityFromDistance sets Density = 1 - Distance clamped to [0, 1].
func AddDensityFromDistance(t *Table) {
	for i := range t.Rows {
		t.Rows[i].Density = clamp01(1 - t.Rows[i].Distance)
	}
}

// RecomputeDensityFromProximity rebuilds density from the binary
// specialization of every country and stores it in DensityRecomputed,
// leaving Density untouched:
//
//	density(c, p) = Σ_q X(c, q)·phi(q, p) / Σ_q phi(p, q)
//
// Products nobody specializes in have no proximity mass and get NaN. The
// returned Proximity is the matrix the values were derived from.
func RecomputeDensityFromProximity(t *Table) *Proximity {
	countries, products, x := t.Pivot(func(r Row) float64 { return float64(r.XBinary) })
	prox := NewProximity(products, x)
	if x == nil {
		return prox
	}

	var num mat.Dense
	num.Mul(x, prox.Phi)
	den := prox.RowSums()

	ci := indexOf(countries)
	pi := indexOf(products)
	for i := range t.Rows {
		r := &t.Rows[i]
		c, p := ci[r.Country], pi[r.Product]
		if den[p] == 0 {
			r.DensityRecomputed = math.NaN()
			continue
		}
		r.DensityRecomputed = num.At(c, p) / den[p]
	}
	return prox
}

// CountryCorrelation is the agreement between the given and the recomputed
// density for one country.
type CountryCorrelation struct {
	Country     string
	Correlation float64
	Pairs       int
}

// DensityAgreement correlates Density with DensityRecomputed per country and
// averages the defined correlations. Countries with fewer than two finite
// pairs or a constant series get NaN and do not count toward the mean.
func DensityAgreement(t *Table) ([]CountryCorrelation, float64) {
	groups := t.ByCountry()
	countries := make([]string, 0, len(groups))
	for c := range groups {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	out := make([]CountryCorrelation, 0, len(countries))
	var sum float64
	var n int
	for _, c := range countries {
		var xs, ys []float64
		for _, i := range groups[c] {
			r := t.Rows[i]
			if isFinite(r.Density) && isFinite(r.DensityRecomputed) {
				xs = append(xs, r.Density)
				ys = append(ys, r.DensityRecomputed)
			}
		}

		corr := math.NaN()
		if len(xs) >= 2 && stat.Variance(xs, nil) > 0 && stat.Variance(ys, nil) > 0 {
			corr = stat.Correlation(xs, ys, nil)
			sum += corr
			n++
		}
		out = append(out, CountryCorrelation{Country: c, Correlation: corr, Pairs: len(xs)})
	}

	if n == 0 {
		return out, math.NaN()
	}
	return out, sum / float64(n)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
