package complexity

import (
	"math"

	"productspace/internal/dataset"
)

type pair struct {
	country string
	product string
	rca     float64
}

func tableOf(pairs ...pair) *Table {
	records := make([]dataset.CountryProduct, 0, len(pairs))
	for _, p := range pairs {
		records = append(records, dataset.CountryProduct{
			Country:     p.country,
			Product:     p.product,
			Year:        2022,
			ExportValue: 100,
			ExportRCA:   p.rca,
			Distance:    0.5,
		})
	}
	return NewTable(records, nil, nil)
}

// twoCountries is A specialized in P1, P2 and B specialized in P2, P3.
func twoCountries() *Table {
	return tableOf(
		pair{"A", "P1", 2.0},
		pair{"A", "P2", 1.5},
		pair{"A", "P3", 0},
		pair{"B", "P1", 0},
		pair{"B", "P2", 1.8},
		pair{"B", "P3", 1.2},
	)
}

func find(t *Table, country, product string) Row {
	for _, r := range t.Rows {
		if r.Country == country && r.Product == product {
			return r
		}
	}
	return Row{Density: math.NaN()}
}
