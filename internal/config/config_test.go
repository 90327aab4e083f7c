package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.RandomSeed)
	assert.Equal(t, 2022, cfg.Year)
	assert.Equal(t, 1.0, cfg.RCAThreshold)
	assert.Equal(t, 1e-12, cfg.PresenceEps)
	assert.True(t, cfg.FitRecompute)
	assert.Equal(t, SimilarityCosine, cfg.SimilarityMetric)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, []float64{0.75, 1.0, 1.25}, cfg.Sensitivity.RCAThresholds)
	assert.Equal(t, "data/hs92_country_product_year_4.csv", cfg.Data.Path(cfg.Data.CountryProduct))
	assert.Equal(t, 20*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, 50*time.Minute, cfg.Scrape.DownloadTimeout)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, cfg, Default())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
year: 2019
rca_threshold: 1.5
similarity_metric: jaccard_binary
exclude_natural_resources: true
data:
  dir: /srv/atlas
viz:
  enabled: false
  presence: rel
sensitivity:
  rca_thresholds: [0.5, 2]
scrape:
  timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2019, cfg.Year)
	assert.Equal(t, 1.5, cfg.RCAThreshold)
	assert.Equal(t, SimilarityJaccard, cfg.SimilarityMetric)
	assert.True(t, cfg.ExcludeNaturalResources)
	assert.False(t, cfg.Viz.Enabled)
	assert.Equal(t, PresenceRel, cfg.Viz.Presence)
	assert.Equal(t, []float64{0.5, 2}, cfg.Sensitivity.RCAThresholds)
	assert.Equal(t, 5*time.Second, cfg.Scrape.Timeout)
	assert.Equal(t, "/srv/atlas/product_hs92.csv", cfg.Data.Path(cfg.Data.ProductMeta))
	assert.Equal(t, "/tmp/x.csv", cfg.Data.Path("/tmp/x.csv"))
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.TopN)
	assert.True(t, cfg.Output.Workbook)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ATLAS_YEAR", "2015")
	t.Setenv("ATLAS_OUTPUT_DIR", "elsewhere")
	t.Setenv("ATLAS_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "year: 2019\n"))
	require.NoError(t, err)
	assert.Equal(t, 2015, cfg.Year)
	assert.Equal(t, "elsewhere", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "year: [1, 2\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"year", func(c *Config) { c.Year = 0 }, "year"},
		{"threshold", func(c *Config) { c.RCAThreshold = 0 }, "rca_threshold"},
		{"eps", func(c *Config) { c.PresenceEps = -1 }, "presence_eps"},
		{"top n", func(c *Config) { c.TopN = 0 }, "top_n"},
		{"metric", func(c *Config) { c.SimilarityMetric = "euclid" }, "similarity_metric"},
		{"presence", func(c *Config) { c.Viz.Presence = "abs" }, "viz.presence"},
		{"sweep", func(c *Config) { c.Sensitivity.RCAThresholds = []float64{1, -1} }, "rca_thresholds"},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "config_snapshot.yaml")
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	cfg := Default()
	require.NoError(t, WriteSnapshot(path, Snapshot{RunID: "run-1", StartedAt: started, Config: cfg}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "run_id: run-1")
	assert.Contains(t, string(raw), "similarity_metric: cosine_rca")

	got, err := readSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, cfg, got.Config)
}

func readSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
