package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "ATLAS"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// Load reads the YAML file at path, applies ATLAS_* overrides and defaults,
// and validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Default is the configuration a run gets with no file and no environment.
func Default() *Config {
	cfg := &Config{}
	if err := newViper().Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: defaults do not unmarshal: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("random_seed", 42)
	v.SetDefault("year", 2022)
	v.SetDefault("rca_threshold", 1.0)
	v.SetDefault("presence_eps", 1e-12)
	v.SetDefault("fit_recompute", true)
	v.SetDefault("exclude_natural_resources", false)
	v.SetDefault("similarity_metric", SimilarityCosine)
	v.SetDefault("smoothing_years", 1)
	v.SetDefault("top_n", 10)

	v.SetDefault("data.dir", "data")
	v.SetDefault("data.country_product", "hs92_country_product_year_4.csv")
	v.SetDefault("data.product_meta", "product_hs92.csv")
	v.SetDefault("data.layout", "umap_layout_hs92.csv")
	v.SetDefault("data.edges", "top_edges_hs92.csv")
	v.SetDefault("data.country_year", "hs92_country_year.csv")

	v.SetDefault("output.dir", "outputs")
	v.SetDefault("output.workbook", true)
	v.SetDefault("output.brief", true)
	v.SetDefault("output.metrics", true)

	v.SetDefault("viz.enabled", true)
	v.SetDefault("viz.presence", PresenceRCA)

	v.SetDefault("sensitivity.rca_thresholds", []float64{0.75, 1.0, 1.25})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("scrape.url", "https://atlas.hks.harvard.edu/data-downloads")
	v.SetDefault("scrape.download_dir", "data")
	v.SetDefault("scrape.complexity_only", false)
	v.SetDefault("scrape.headless", true)
	v.SetDefault("scrape.timeout", "20s")
	v.SetDefault("scrape.download_timeout", "50m")
}
