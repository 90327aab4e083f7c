package complexity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkCandidates(t *testing.T) {
	table := tableOf(pair{"A", "P1", 2.0}, pair{"A", "P2", 0.2}, pair{"A", "P3", 0.9})
	table.Rows[0].Density = 0.8
	table.Rows[1].Density = 0.3
	table.Rows[2].Density = 0.6

	MarkCandidates(table, 1.0)

	assert.False(t, find(table, "A", "P1").IsCandidate, "already specialized")
	assert.False(t, find(table, "A", "P2").IsCandidate, "below median density")
	assert.True(t, find(table, "A", "P3").IsCandidate)
}

func TestMarkCandidatesPerCountryMedian(t *testing.T) {
	table := tableOf(
		pair{"A", "P1", 0.1}, pair{"A", "P2", 0.1},
		pair{"B", "P1", 0.1}, pair{"B", "P2", 0.1},
	)
	densities := []float64{0.9, 0.7, 0.2, 0.1}
	for i := range table.Rows {
		table.Rows[i].Density = densities[i]
	}

	MarkCandidates(table, 1.0)

	// A's median is 0.8, B's is 0.15
	assert.True(t, find(table, "A", "P1").IsCandidate)
	assert.False(t, find(table, "A", "P2").IsCandidate)
	assert.True(t, find(table, "B", "P1").IsCandidate)
	assert.False(t, find(table, "B", "P2").IsCandidate)
}

func TestMarkCandidatesMissingValues(t *testing.T) {
	table := tableOf(pair{"A", "P1", math.NaN()}, pair{"A", "P2", 0.5})
	table.Rows[0].Density = 0.9
	table.Rows[1].Density = math.NaN()

	MarkCandidates(table, 1.0)

	assert.False(t, table.Rows[0].IsCandidate)
	assert.False(t, table.Rows[1].IsCandidate)
}

func TestScoreOpportunities(t *testing.T) {
	table := tableOf(pair{"A", "P1", 0}, pair{"A", "P2", 2}, pair{"B", "P1", 1})
	values := []struct{ density, pci, cog float64 }{
		{0.9, 1, 1},
		{0.1, -1, 0},
		{0.5, 0, -1},
	}
	for i, v := range values {
		table.Rows[i].Density = v.density
		table.Rows[i].PCI = v.pci
		table.Rows[i].COG = v.cog
	}

	ScoreOpportunities(table)

	// every column has sample std 0.4, 1, 1, 1 around means 0.5, 0, 0, 1
	assert.InDelta(t, 1+0.5+0.5+0.5, table.Rows[0].Score, 1e-9)
	assert.InDelta(t, -1-0.5+0-0.5, table.Rows[1].Score, 1e-9)
	assert.InDelta(t, 0+0-0.5-0, table.Rows[2].Score, 1e-9)
}

func TestScoreOpportunitiesPropagatesMissing(t *testing.T) {
	table := tableOf(pair{"A", "P1", 0}, pair{"A", "P2", 2}, pair{"B", "P1", 1})
	for i := range table.Rows {
		table.Rows[i].Density = float64(i)
		table.Rows[i].PCI = float64(i)
		table.Rows[i].COG = float64(i)
	}
	table.Rows[1].PCI = math.NaN()

	ScoreOpportunities(table)

	assert.True(t, math.IsNaN(table.Rows[1].Score))
	assert.False(t, math.IsNaN(table.Rows[0].Score))
}

func TestTopOpportunities(t *testing.T) {
	var pairs []pair
	for i := 0; i < 12; i++ {
		pairs = append(pairs, pair{"A", string(rune('a' + i)), 0.1})
	}
	pairs = append(pairs, pair{"B", "a", 0.1}, pair{"B", "b", 0.1})
	table := tableOf(pairs...)

	for i := range table.Rows {
		table.Rows[i].IsCandidate = true
		table.Rows[i].Score = float64(i)
	}
	table.Rows[11].NaturalResource = true
	table.Rows[12].Score = math.NaN()

	top := TopOpportunities(table, RankOptions{Threshold: 1, TopN: 10})
	require.Len(t, top, 11)
	assert.Equal(t, "l", top[0].Product)
	assert.Equal(t, "c", top[9].Product)
	assert.Equal(t, "B", top[10].Country)
	assert.Equal(t, "b", top[10].Product)

	top = TopOpportunities(table, RankOptions{Threshold: 1, TopN: 10, ExcludeNaturalResources: true})
	require.Len(t, top, 11)
	assert.Equal(t, "k", top[0].Product)
	assert.Equal(t, "b", top[9].Product)
}

func TestRankOpportunities(t *testing.T) {
	table := syntheticTable(3)
	AddRCABinary(table, 1)
	AddDensityFromDistance(table)

	top := RankOpportunities(table, RankOptions{Threshold: 1, TopN: 10})
	require.NotEmpty(t, top)

	perCountry := map[string]int{}
	for i, r := range top {
		perCountry[r.Country]++
		assert.True(t, r.IsCandidate)
		assert.Less(t, r.ExportRCA, 1.0)
		if i > 0 && top[i-1].Country == r.Country {
			assert.GreaterOrEqual(t, top[i-1].Score, r.Score)
		}
	}
	for _, n := range perCountry {
		assert.LessOrEqual(t, n, 10)
	}
}
