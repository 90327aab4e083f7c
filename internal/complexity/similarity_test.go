package complexity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountrySimilarityCosine(t *testing.T) {
	table := twoCountries()

	m := CountrySimilarityCosine(table)
	require.Equal(t, []string{"A", "B"}, m.Labels)

	expected := 2.7 / (2.5 * math.Sqrt(4.68))
	assert.InDelta(t, expected, m.At("A", "B"), 1e-12)
	assert.InDelta(t, 0.499, m.At("A", "B"), 1e-3)
	assert.Equal(t, m.At("A", "B"), m.At("B", "A"))
	assert.Equal(t, 1.0, m.At("A", "A"))
	assert.Equal(t, 1.0, m.At("B", "B"))
}

func TestCountrySimilarityCosineProperties(t *testing.T) {
	table := syntheticTable(11)
	table.Rows = append(table.Rows, Row{Country: "ZZ", Product: "a0", ExportRCA: 0})

	m := CountrySimilarityCosine(table)
	n := len(m.Labels)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.Values.At(i, j)
			assert.InDelta(t, v, m.Values.At(j, i), 1e-12)
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	assert.Equal(t, 1.0, m.At("AA", "AA"))
	assert.Equal(t, 0.0, m.At("ZZ", "ZZ"), "zero vector has no direction")
	assert.Equal(t, 0.0, m.At("ZZ", "AA"))
}

func TestCountrySimilarityJaccard(t *testing.T) {
	table := twoCountries()
	AddRCABinary(table, 1)

	m := CountrySimilarityJaccard(table)
	assert.InDelta(t, 1.0/3, m.At("A", "B"), 1e-12)
	assert.Equal(t, m.At("A", "B"), m.At("B", "A"))
	assert.Equal(t, 1.0, m.At("A", "A"))
	assert.Equal(t, 1.0, m.At("B", "B"))
}

func TestCountrySimilarityJaccardEmptyCountry(t *testing.T) {
	table := tableOf(pair{"A", "P1", 2}, pair{"B", "P1", 0.1})
	AddRCABinary(table, 1)

	m := CountrySimilarityJaccard(table)
	assert.Equal(t, 1.0, m.At("A", "A"))
	assert.Equal(t, 0.0, m.At("A", "B"))
	assert.True(t, math.IsNaN(m.At("B", "B")))
}

func TestSimilarityEmptyTable(t *testing.T) {
	assert.Nil(t, CountrySimilarityCosine(&Table{}).Values)
	assert.Nil(t, CountrySimilarityJaccard(&Table{}).Values)
}
