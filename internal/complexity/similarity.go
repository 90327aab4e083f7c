package complexity

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a labelled square country × country matrix.
type Matrix struct {
	Labels []string
	Values *mat.Dense
}

// At returns the value for two labels, or NaN if either is unknown.
func (m *Matrix) At(a, b string) float64 {
	i, j := -1, -1
	for k, l := range m.Labels {
		if l == a {
			i = k
		}
		if l == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values.At(i, j)
}

// CountrySimilarityCosine compares countries by the cosine of their RCA
// vectors. A country whose vector is all zero is 0 against everything,
// itself included.
func CountrySimilarityCosine(t *Table) *Matrix {
	countries, _, rca := t.Pivot(func(r Row) float64 { return r.ExportRCA })
	if rca == nil {
		return &Matrix{Labels: countries}
	}

	n, _ := rca.Dims()
	unit := mat.DenseCopyOf(rca)
	nonzero := make([]bool, n)
	for i := 0; i < n; i++ {
		row := unit.RawRowView(i)
		norm := floats.Norm(row, 2)
		if norm == 0 {
			continue
		}
		nonzero[i] = true
		floats.Scale(1/norm, row)
	}

	sim := mat.NewDense(n, n, nil)
	sim.Mul(unit, unit.T())
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := math.Max(-1, math.Min(1, sim.At(i, j)))
			if i == j && nonzero[i] {
				v = 1
			}
			sim.Set(i, j, v)
		}
	}
	return &Matrix{Labels: countries, Values: sim}
}

// CountrySimilarityJaccard compares the sets of products each country
// specializes in. Pairs whose union is empty are NaN.
func CountrySimilarityJaccard(t *Table) *Matrix {
	countries, _, x := t.Pivot(func(r Row) float64 { return float64(r.XBinary) })
	if x == nil {
		return &Matrix{Labels: countries}
	}

	n, p := x.Dims()
	sim := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		a := x.RawRowView(i)
		for j := i; j < n; j++ {
			b := x.RawRowView(j)
			var inter, union float64
			for k := 0; k < p; k++ {
				inA, inB := a[k] != 0, b[k] != 0
				if inA && inB {
					inter++
				}
				if inA || inB {
					union++
				}
			}
			v := math.NaN()
			if union > 0 {
				v = inter / union
			}
			sim.Set(i, j, v)
			sim.Set(j, i, v)
		}
	}
	return &Matrix{Labels: countries, Values: sim}
}
