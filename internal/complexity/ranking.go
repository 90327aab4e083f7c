package complexity

import (
	"sort"
)

const DefaultTopN = 10

// Score weights of the opportunity ranking.
const (
	weightDensity = 1.0
	weightPCI     = 0.5
	weightCOG     = 0.5
	weightRCA     = -0.5
)

type RankOptions struct {
	Threshold               float64
	TopN                    int
	// ExcludeNaturalResources drops natural-resource products from the ranked
	// list only; candidates, similarity, summaries and the sweep keep them.
	ExcludeNaturalResources bool
}

// MarkCandidates flags a row when its density is at or above its country's
// median density and the country has no comparative advantage in it yet.
func MarkCandidates(t *Table, threshold float64) {
	for _, idx := range t.ByCountry() {
		densities := make([]float64, len(idx))
		for k, i := range idx {
			densities[k] = t.Rows[i].Density
		}
		m := median(densities)
		for _, i := range idx {
			r := &t.Rows[i]
			r.IsCandidate = r.Density >= m && r.ExportRCA < threshold
		}
	}
}

// ScoreOpportunities combines z-scores computed over the whole table:
// z(density) + 0.5 z(pci) + 0.5 z(cog) - 0.5 z(export_rca).
func ScoreOpportunities(t *Table) {
	n := len(t.Rows)
	density := make([]float64, n)
	pci := make([]float64, n)
	cog := make([]float64, n)
	rca := make([]float64, n)
	for i, r := range t.Rows {
		density[i] = r.Density
		pci[i] = r.PCI
		cog[i] = r.COG
		rca[i] = r.ExportRCA
	}

	zd, zp, zc, zr := zScores(density), zScores(pci), zScores(cog), zScores(rca)
	for i := range t.Rows {
		t.Rows[i].Score = weightDensity*zd[i] + weightPCI*zp[i] + weightCOG*zc[i] + weightRCA*zr[i]
	}
}

// TopOpportunities returns up to TopN scored candidates per country, countries
// in code order and each country's rows by descending score.
func TopOpportunities(t *Table, opts RankOptions) []Row {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	groups := map[string][]Row{}
	for _, r := range t.Rows {
		if !r.IsCandidate || !isFinite(r.Score) {
			continue
		}
		if opts.ExcludeNaturalResources && r.NaturalResource {
			continue
		}
		groups[r.Country] = append(groups[r.Country], r)
	}

	countries := make([]string, 0, len(groups))
	for c := range groups {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	var out []Row
	for _, c := range countries {
		rows := groups[c]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Score != rows[j].Score {
				return rows[i].Score > rows[j].Score
			}
			return rows[i].Product < rows[j].Product
		})
		if len(rows) > topN {
			rows = rows[:topN]
		}
		out = append(out, rows...)
	}
	return out
}

// RankOpportunities marks candidates, scores every row and returns the top
// opportunities per country.
func RankOpportunities(t *Table, opts RankOptions) []Row {
	MarkCandidates(t, opts.Threshold)
	ScoreOpportunities(t)
	return TopOpportunities(t, opts)
}
