package complexity

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Proximity is the product × product minimum-conditional-probability matrix
// derived from a binary country × product incidence matrix.
type Proximity struct {
	Products []string
	// Counts holds how many countries specialize in each product.
	Counts []float64
	Phi    *mat.Dense
}

// NewProximity computes phi(p, q) = C(p, q) / max(count(p), count(q)) where
// C = XᵀX is the co-occurrence matrix. The diagonal keeps the self pair, so
// phi(p, p) is 1 for any product at least one country specializes in.
func NewProximity(products []string, incidence *mat.Dense) *Proximity {
	n := len(products)
	prox := &Proximity{Products: products, Counts: make([]float64, n)}
	if incidence == nil || n == 0 {
		return prox
	}

	var co mat.Dense
	co.Mul(incidence.T(), incidence)

	for p := 0; p < n; p++ {
		prox.Counts[p] = co.At(p, p)
	}

	prox.Phi = mat.NewDense(n, n, nil)
	for p := 0; p < n; p++ {
		for q := p; q < n; q++ {
			denom := math.Max(prox.Counts[p], prox.Counts[q])
			v := 0.0
			if denom > 0 {
				v = co.At(p, q) / denom
			}
			prox.Phi.Set(p, q, v)
			prox.Phi.Set(q, p, v)
		}
	}
	return prox
}

// At returns the proximity between two product codes, or NaN if either is
// unknown.
func (p *Proximity) At(a, b string) float64 {
	i, j := -1, -1
	for k, code := range p.Products {
		if code == a {
			i = k
		}
		if code == b {
			j = k
		}
	}
	if i < 0 || j < 0 || p.Phi == nil {
		return math.NaN()
	}
	return p.Phi.At(i, j)
}

// RowSums returns Σ_q phi(p, q) for every product p.
func (p *Proximity) RowSums() []float64 {
	sums := make([]float64, len(p.Products))
	if p.Phi == nil {
		return sums
	}
	for i := range sums {
		sums[i] = mat.Sum(p.Phi.RowView(i))
	}
	return sums
}
