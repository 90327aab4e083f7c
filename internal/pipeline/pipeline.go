// Package pipeline runs the economic-complexity analysis end to end: load,
// QA, presence, fit, ranking, figures, similarity, summaries and the
// threshold sweep, writing every output under the configured directory.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"productspace/internal/complexity"
	"productspace/internal/config"
	"productspace/internal/dataset"
	"productspace/internal/metrics"
)

const snapshotFile = "config_snapshot.yaml"

type Pipeline struct {
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

func New(cfg *config.Config, log *zap.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, now: time.Now}
}

// Result is what one run computed, plus the paths it wrote.
type Result struct {
	RunID     string
	StartedAt time.Time

	Bundle  *dataset.Bundle
	Table   *complexity.Table
	Dropped []string

	Proximity     *complexity.Proximity
	Agreement     []complexity.CountryCorrelation
	MeanAgreement float64

	Top       []complexity.Row
	Cosine    *complexity.Matrix
	Jaccard   *complexity.Matrix
	Summaries []complexity.CountrySummary
	Clusters  []string
	Sweep     []complexity.SweepResult

	Outputs []string
}

type run struct {
	*Pipeline
	res     *Result
	metrics *metrics.Run
	log     *zap.Logger
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		RunID:         uuid.NewString(),
		StartedAt:     p.now(),
		MeanAgreement: math.NaN(),
	}
	r := &run{
		Pipeline: p,
		res:      res,
		metrics:  metrics.NewRun(res.RunID),
		log:      p.log.With(zap.String("run_id", res.RunID)),
	}

	r.log.Info("pipeline starting",
		zap.Int("year", p.cfg.Year),
		zap.Float64("rca_threshold", p.cfg.RCAThreshold),
		zap.Int64("random_seed", p.cfg.RandomSeed))
	if p.cfg.SmoothingYears > 1 {
		r.log.Warn("multi-year smoothing is not implemented, using the target year only",
			zap.Int("smoothing_years", p.cfg.SmoothingYears))
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"snapshot", r.snapshot},
		{"load", r.load},
		{"qa", r.qa},
		{"presence", r.presence},
		{"fit", r.fit},
		{"ranking", r.ranking},
		{"viz", r.viz},
		{"similarity", r.similarity},
		{"summaries", r.summaries},
		{"sensitivity", r.sensitivity},
		{"report", r.report},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("pipeline: %s: %w", s.name, err)
		}
		start := time.Now()
		r.log.Info("step started", zap.String("step", s.name))
		if err := s.fn(); err != nil {
			r.log.Error("step failed", zap.String("step", s.name), zap.Error(err))
			return res, fmt.Errorf("pipeline: %s: %w", s.name, err)
		}
		elapsed := time.Since(start)
		r.metrics.ObserveStep(s.name, elapsed)
		r.log.Info("step completed", zap.String("step", s.name), zap.Duration("elapsed", elapsed))
	}

	if p.cfg.Output.Metrics {
		path := r.output("metrics.prom")
		if err := r.metrics.WriteTextfile(path); err != nil {
			return res, fmt.Errorf("pipeline: %w", err)
		}
		res.Outputs = append(res.Outputs, path)
	}

	r.log.Info("pipeline finished", zap.Int("outputs", len(res.Outputs)))
	return res, nil
}

func (r *run) output(name string) string {
	return filepath.Join(r.cfg.Output.Dir, name)
}

// wrote records an output file once it exists on disk.
func (r *run) wrote(path string) {
	r.res.Outputs = append(r.res.Outputs, path)
	r.metrics.OutputsWritten.Inc()
	r.log.Debug("output written", zap.String("path", path))
}

func (r *run) snapshot() error {
	path := r.output(snapshotFile)
	err := config.WriteSnapshot(path, config.Snapshot{
		RunID:     r.res.RunID,
		StartedAt: r.res.StartedAt,
		Config:    r.cfg,
	})
	if err != nil {
		return err
	}
	r.wrote(path)
	return nil
}
