package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"productspace/internal/complexity"
	"productspace/internal/config"
)

// writeFixtures lays down a three-country, four-product extract for 2022 plus
// a stray 2021 row.
func writeFixtures(t *testing.T, dir string) {
	t.Helper()

	cp := []string{"country_id,country_iso3_code,product_id,product_hs92_code,year,export_value,import_value,global_market_share,export_rca,distance,cog,pci"}
	rows := []struct {
		country string
		rca     [4]float64
		dist    [4]float64
	}{
		{"AAA", [4]float64{2.0, 1.5, 0.1, 0.3}, [4]float64{0.1, 0.2, 0.4, 0.7}},
		{"BBB", [4]float64{0.2, 1.8, 1.2, 0.4}, [4]float64{0.5, 0.1, 0.2, 0.6}},
		{"CCC", [4]float64{0.0, 0.3, 0.5, 3.0}, [4]float64{0.8, 0.6, 0.3, 0.1}},
	}
	for ci, r := range rows {
		for p := 0; p < 4; p++ {
			cp = append(cp, fmt.Sprintf("%d,%s,%d,010%d,2022,%d,0,0.01,%g,%g,%g,%g",
				ci+1, r.country, p+1, p+1, 100*(p+1), r.rca[p], r.dist[p], 0.1*float64(p), 0.3*float64(p)-0.5))
		}
	}
	cp = append(cp, "1,AAA,1,0101,2021,5,0,0.01,1,0.5,0,0")

	files := map[string]string{
		"cp.csv": strings.Join(cp, "\n") + "\n",
		"products.csv": "product_id,product_hs92_code,product_level,product_name,product_name_short,product_parent_id,product_id_hierarchy,show_feasibility,natural_resource\n" +
			"1,0101,4,Horses,Horses,,1,True,False\n" +
			"2,0102,4,Cattle,Cattle,,2,True,False\n" +
			"3,0103,4,Crude oil,Oil,,3,True,True\n" +
			"4,0104,4,Sheep,Sheep,,4,True,False\n",
		"layout.csv": "product_hs92_code,product_space_x,product_space_y,product_space_cluster_name\n" +
			"0101,0,0,Agriculture\n0102,1,0,Agriculture\n0103,0,1,Minerals\n0104,1,1,Agriculture\n",
		"edges.csv":        "product_hs92_code_source,product_hs92_code_target\n0101,0102\n0102,0104\n",
		"country_year.csv": "country_id,country_iso3_code,year,export_value,import_value,eci,coi,diversity,growth_proj\n1,AAA,2022,1000,10,0.5,0.1,20,0.03\n2,BBB,2022,900,10,-0.2,0.2,15,0.02\n1,AAA,2021,800,10,0.4,0.1,19,0.03\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	data := t.TempDir()
	writeFixtures(t, data)

	cfg := config.Default()
	cfg.Data = config.DataConfig{
		Dir:            data,
		CountryProduct: "cp.csv",
		ProductMeta:    "products.csv",
		Layout:         "layout.csv",
		Edges:          "edges.csv",
		CountryYear:    "country_year.csv",
	}
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.SimilarityMetric = config.SimilarityJaccard

	res, err := New(cfg, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.Table.Rows, 12)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, res.Cosine.Labels)
	require.NotNil(t, res.Jaccard)
	require.NotNil(t, res.Proximity)
	assert.Len(t, res.Agreement, 3)
	assert.Len(t, res.Summaries, 3)
	assert.Equal(t, []string{"Agriculture", "Minerals"}, res.Clusters)
	assert.Len(t, res.Sweep, 3)

	for _, r := range res.Top {
		assert.True(t, r.IsCandidate)
		assert.Less(t, r.ExportRCA, cfg.RCAThreshold)
	}

	for _, name := range []string{
		"config_snapshot.yaml", "density_recomputed.csv", "density_agreement.csv",
		"top_opportunities.csv", "similarity_cosine.csv", "similarity_jaccard.csv",
		"country_summary.csv", "threshold_sweep.csv", "atlas_outputs.xlsx", "brief.md",
		"metrics.prom", "AAA/product_space.html", "CCC/opportunities_scatter.html",
	} {
		path := filepath.Join(cfg.Output.Dir, name)
		assert.FileExists(t, path)
		assert.Contains(t, res.Outputs, path)
	}

	raw, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "config_snapshot.yaml"))
	require.NoError(t, err)
	var snap config.Snapshot
	require.NoError(t, yaml.Unmarshal(raw, &snap))
	assert.Equal(t, res.RunID, snap.RunID)
	assert.Equal(t, 2022, snap.Config.Year)

	prom, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), fmt.Sprintf(`atlas_rows_loaded{run_id=%q} 12`, res.RunID))
}

func TestRunExcludesNaturalResourcesFromRankingOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.ExcludeNaturalResources = true
	cfg.Viz.Enabled = false

	res, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	for _, r := range res.Top {
		assert.NotEqual(t, "0103", r.Product)
	}
	assert.Len(t, res.Table.Rows, 12, "the working table keeps natural resources")
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "AAA", "product_space.html"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "similarity_jaccard.csv"))
}

func TestRunOptionalOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.FitRecompute = false
	cfg.Viz.Enabled = false
	cfg.Output.Workbook = false
	cfg.Output.Brief = false
	cfg.Output.Metrics = false

	res, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, res.Proximity)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "density_recomputed.csv"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "atlas_outputs.xlsx"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "brief.md"))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "metrics.prom"))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "top_opportunities.csv"))
}

func TestRunDropsDuplicatePairs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Viz.Enabled = false
	path := cfg.Data.Path(cfg.Data.CountryProduct)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("2,BBB,4,0104,2022,50,0,0.01,0.9,0.5,0,0\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	res, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0104"}, res.Dropped)
	assert.Len(t, res.Table.Rows, 9)
}

func TestRunFailures(t *testing.T) {
	t.Run("missing year", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Year = 1999
		_, err := New(cfg, zap.NewNop()).Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipeline: load")
		assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "top_opportunities.csv"))
	})

	t.Run("cancelled", func(t *testing.T) {
		cfg := testConfig(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(cfg, zap.NewNop()).Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestSummariesUseTargetYear(t *testing.T) {
	cfg := testConfig(t)
	cfg.Viz.Enabled = false

	res, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	byCountry := map[string]complexity.CountrySummary{}
	for _, s := range res.Summaries {
		byCountry[s.Country] = s
	}
	assert.Equal(t, 1000.0, byCountry["AAA"].ExportValueTotal)
	assert.Equal(t, 4, byCountry["AAA"].NumProducts)
	assert.InDelta(t, 0.75, byCountry["AAA"].Clusters["Agriculture"], 1e-12)
}
