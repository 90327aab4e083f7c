// Package config loads the run configuration from YAML with ATLAS_*
// environment overrides and validates it.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap/zapcore"

	"productspace/internal/logging"
)

const (
	SimilarityCosine  = "cosine_rca"
	SimilarityJaccard = "jaccard_binary"

	PresenceRCA = "rca"
	PresenceRel = "rel"
)

type Config struct {
	RandomSeed              int64   `mapstructure:"random_seed" yaml:"random_seed"`
	Year                    int     `mapstructure:"year" yaml:"year"`
	RCAThreshold            float64 `mapstructure:"rca_threshold" yaml:"rca_threshold"`
	PresenceEps             float64 `mapstructure:"presence_eps" yaml:"presence_eps"`
	FitRecompute            bool    `mapstructure:"fit_recompute" yaml:"fit_recompute"`
	ExcludeNaturalResources bool    `mapstructure:"exclude_natural_resources" yaml:"exclude_natural_resources"`
	SimilarityMetric        string  `mapstructure:"similarity_metric" yaml:"similarity_metric"`
	SmoothingYears          int     `mapstructure:"smoothing_years" yaml:"smoothing_years"`
	TopN                    int     `mapstructure:"top_n" yaml:"top_n"`

	Data        DataConfig        `mapstructure:"data" yaml:"data"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Viz         VizConfig         `mapstructure:"viz" yaml:"viz"`
	Sensitivity SensitivityConfig `mapstructure:"sensitivity" yaml:"sensitivity"`
	Log         logging.Config    `mapstructure:"log" yaml:"log"`
	Scrape      ScrapeConfig      `mapstructure:"scrape" yaml:"scrape"`
}

type DataConfig struct {
	Dir            string `mapstructure:"dir" yaml:"dir"`
	CountryProduct string `mapstructure:"country_product" yaml:"country_product"`
	ProductMeta    string `mapstructure:"product_meta" yaml:"product_meta"`
	Layout         string `mapstructure:"layout" yaml:"layout"`
	Edges          string `mapstructure:"edges" yaml:"edges"`
	CountryYear    string `mapstructure:"country_year" yaml:"country_year"`
}

// Path joins a data file name onto Dir unless it is already absolute.
func (d DataConfig) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Dir, name)
}

type OutputConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Workbook bool   `mapstructure:"workbook" yaml:"workbook"`
	Brief    bool   `mapstructure:"brief" yaml:"brief"`
	Metrics  bool   `mapstructure:"metrics" yaml:"metrics"`
}

type VizConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Presence string `mapstructure:"presence" yaml:"presence"`
}

type SensitivityConfig struct {
	RCAThresholds []float64 `mapstructure:"rca_thresholds" yaml:"rca_thresholds"`
}

type ScrapeConfig struct {
	URL             string        `mapstructure:"url" yaml:"url"`
	DownloadDir     string        `mapstructure:"download_dir" yaml:"download_dir"`
	ComplexityOnly  bool          `mapstructure:"complexity_only" yaml:"complexity_only"`
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
}

func (c *Config) Validate() error {
	var errs []error
	if c.Year <= 0 {
		errs = append(errs, fmt.Errorf("year must be positive, got %d", c.Year))
	}
	if !(c.RCAThreshold > 0) {
		errs = append(errs, fmt.Errorf("rca_threshold must be positive, got %g", c.RCAThreshold))
	}
	if !(c.PresenceEps >= 0) {
		errs = append(errs, fmt.Errorf("presence_eps must be non-negative, got %g", c.PresenceEps))
	}
	if c.TopN <= 0 {
		errs = append(errs, fmt.Errorf("top_n must be positive, got %d", c.TopN))
	}
	switch c.SimilarityMetric {
	case SimilarityCosine, SimilarityJaccard:
	default:
		errs = append(errs, fmt.Errorf("similarity_metric must be %s or %s, got %q", SimilarityCosine, SimilarityJaccard, c.SimilarityMetric))
	}
	switch c.Viz.Presence {
	case PresenceRCA, PresenceRel:
	default:
		errs = append(errs, fmt.Errorf("viz.presence must be %s or %s, got %q", PresenceRCA, PresenceRel, c.Viz.Presence))
	}
	for _, t := range c.Sensitivity.RCAThresholds {
		if !(t > 0) {
			errs = append(errs, fmt.Errorf("sensitivity.rca_thresholds must be positive, got %g", t))
			break
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}
