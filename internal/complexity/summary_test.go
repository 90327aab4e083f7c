package complexity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productspace/internal/dataset"
)

func summaryTable() *Table {
	records := []dataset.CountryProduct{
		{Country: "A", Product: "P1", ExportRCA: 2.0, Distance: 0.2},
		{Country: "A", Product: "P2", ExportRCA: 1.5, Distance: 0.6},
		{Country: "A", Product: "P3", ExportRCA: 0.5, Distance: 0.3},
		{Country: "B", Product: "P1", ExportRCA: 0.0, Distance: 0.9},
		{Country: "B", Product: "P2", ExportRCA: 3.0, Distance: 0.1},
	}
	products := []dataset.Product{{Code: "P1", Name: "Horses"}}
	layout := []dataset.LayoutNode{
		{Code: "P1", Cluster: "Agriculture"},
		{Code: "P2", Cluster: "Agriculture"},
		{Code: "P3", Cluster: "Metals"},
	}
	table := NewTable(records, products, layout)
	AddDensityFromDistance(table)
	return table
}

func TestSummarize(t *testing.T) {
	table := summaryTable()
	countryYear := []dataset.CountryYear{{
		Country: "A", ExportValueTotal: 1000, ECI: 0.4, GrowthProj: 0.03, Diversity: 12, COI: -0.2,
	}}
	top := []Row{find(table, "A", "P3")}

	summaries, clusters := Summarize(table, countryYear, top, 1.0)
	require.Len(t, summaries, 2)
	assert.Equal(t, []string{"Agriculture", "Metals"}, clusters)

	a := summaries[0]
	assert.Equal(t, "A", a.Country)
	assert.Equal(t, 1000.0, a.ExportValueTotal)
	assert.Equal(t, 0.4, a.ECI)
	assert.Equal(t, 3, a.NumProducts)
	// global median density is 0.7, so P2 (density 0.4) is not a strength
	assert.Equal(t, []string{"Horses"}, a.TopStrengths)
	assert.Equal(t, []string{"P3"}, a.TopOpportunities)
	assert.InDelta(t, 2.0/3, a.Clusters["Agriculture"], 1e-12)
	assert.InDelta(t, 1.0/3, a.Clusters["Metals"], 1e-12)

	b := summaries[1]
	assert.Equal(t, "B", b.Country)
	assert.True(t, math.IsNaN(b.ExportValueTotal))
	assert.True(t, math.IsNaN(b.ECI))
	assert.Equal(t, 2, b.NumProducts)
	assert.Equal(t, []string{"P2"}, b.TopStrengths)
	assert.Empty(t, b.TopOpportunities)
	assert.Equal(t, 1.0, b.Clusters["Agriculture"])
}

func TestSummarizeStrengthsCapped(t *testing.T) {
	var pairs []pair
	for i := 0; i < 8; i++ {
		pairs = append(pairs, pair{"A", string(rune('a' + i)), float64(i + 1)})
	}
	table := tableOf(pairs...)
	AddDensityFromDistance(table)

	summaries, clusters := Summarize(table, nil, nil, 1.0)
	require.Len(t, summaries, 1)
	assert.Empty(t, clusters)
	assert.Equal(t, []string{"h", "g", "f", "e", "d"}, summaries[0].TopStrengths)
	assert.Empty(t, summaries[0].Clusters)
}
