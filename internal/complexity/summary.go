package complexity

import (
	"math"
	"sort"

	"productspace/internal/dataset"
)

const maxStrengths = 5

type CountrySummary struct {
	Country          string
	ExportValueTotal float64
	ECI              float64
	GrowthProj       float64
	Diversity        float64
	COI              float64
	NumProducts      int
	TopStrengths     []string
	TopOpportunities []string
	// Clusters maps a product-space cluster to its share of the country's rows.
	Clusters map[string]float64
}

// Summarize builds one summary per country of the table. countryYear should
// already be narrowed to the table's year; countries without a match keep NaN
// aggregates. It also returns the sorted cluster names seen in the table.
func Summarize(t *Table, countryYear []dataset.CountryYear, top []Row, threshold float64) ([]CountrySummary, []string) {
	aggregates := map[string]dataset.CountryYear{}
	for _, cy := range countryYear {
		if _, ok := aggregates[cy.Country]; !ok {
			aggregates[cy.Country] = cy
		}
	}

	densities := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		densities[i] = r.Density
	}
	globalMedian := median(densities)

	opportunities := map[string][]string{}
	for _, r := range top {
		opportunities[r.Country] = append(opportunities[r.Country], r.Label())
	}

	clusterSet := map[string]struct{}{}
	groups := t.ByCountry()
	summaries := make([]CountrySummary, 0, len(groups))
	for _, country := range t.Countries() {
		s := CountrySummary{
			Country:          country,
			ExportValueTotal: math.NaN(),
			ECI:              math.NaN(),
			GrowthProj:       math.NaN(),
			Diversity:        math.NaN(),
			COI:              math.NaN(),
			TopOpportunities: opportunities[country],
			Clusters:         map[string]float64{},
		}
		if cy, ok := aggregates[country]; ok {
			s.ExportValueTotal = cy.ExportValueTotal
			s.ECI = cy.ECI
			s.GrowthProj = cy.GrowthProj
			s.Diversity = cy.Diversity
			s.COI = cy.COI
		}

		var strengths []Row
		clustered := 0
		for _, i := range groups[country] {
			r := t.Rows[i]
			s.NumProducts++
			if r.ExportRCA >= threshold && r.Density >= globalMedian {
				strengths = append(strengths, r)
			}
			if r.Cluster != "" {
				s.Clusters[r.Cluster]++
				clusterSet[r.Cluster] = struct{}{}
				clustered++
			}
		}
		for c := range s.Clusters {
			s.Clusters[c] /= float64(clustered)
		}

		sort.SliceStable(strengths, func(i, j int) bool {
			return strengths[i].ExportRCA > strengths[j].ExportRCA
		})
		if len(strengths) > maxStrengths {
			strengths = strengths[:maxStrengths]
		}
		for _, r := range strengths {
			s.TopStrengths = append(s.TopStrengths, r.Label())
		}

		summaries = append(summaries, s)
	}

	clusters := make([]string, 0, len(clusterSet))
	for c := range clusterSet {
		clusters = append(clusters, c)
	}
	sort.Strings(clusters)
	return summaries, clusters
}
