// Package metrics records what a pipeline run loaded, dropped and produced,
// and writes it in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "atlas"

type Run struct {
	registry *prometheus.Registry

	RowsLoaded       prometheus.Gauge
	DistanceAdjusted prometheus.Gauge
	ProductsDropped  prometheus.Gauge
	Countries        prometheus.Gauge
	Products         prometheus.Gauge
	Candidates       prometheus.Gauge
	DensityAgreement prometheus.Gauge
	OutputsWritten   prometheus.Counter
	stepSeconds      *prometheus.GaugeVec
}

// NewRun registers the run gauges on a fresh registry labelled with runID.
func NewRun(runID string) *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels{"run_id": runID}

	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &Run{
		registry:         reg,
		RowsLoaded:       gauge("rows_loaded", "Country-product rows kept for the target year."),
		DistanceAdjusted: gauge("distance_adjusted", "Distance cells filled or clamped on load."),
		ProductsDropped:  gauge("products_dropped", "Product codes dropped for duplicate country-product pairs."),
		Countries:        gauge("countries", "Countries in the working table."),
		Products:         gauge("products", "Products in the working table."),
		Candidates:       gauge("candidates", "Country-product pairs flagged as opportunity candidates."),
		DensityAgreement: gauge("density_agreement", "Mean per-country correlation of given and recomputed density."),
		OutputsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "outputs_written_total",
			Help:        "Output files written by the run.",
			ConstLabels: labels,
		}),
		stepSeconds: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "step_duration_seconds",
			Help:        "Wall time of each pipeline step.",
			ConstLabels: labels,
		}, []string{"step"}),
	}
}

func (r *Run) ObserveStep(step string, d time.Duration) {
	r.stepSeconds.WithLabelValues(step).Set(d.Seconds())
}

func (r *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: create dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
