package pipeline

import (
	"math"
	"path/filepath"

	"go.uber.org/zap"

	"productspace/internal/complexity"
	"productspace/internal/config"
	"productspace/internal/dataset"
	"productspace/internal/report"
	"productspace/internal/viz"
)

func (r *run) load() error {
	d := r.cfg.Data
	bundle, err := dataset.Load(dataset.Paths{
		CountryProduct: d.Path(d.CountryProduct),
		ProductMeta:    d.Path(d.ProductMeta),
		Layout:         d.Path(d.Layout),
		Edges:          d.Path(d.Edges),
		CountryYear:    d.Path(d.CountryYear),
	}, r.cfg.Year)
	if err != nil {
		return err
	}
	r.res.Bundle = bundle
	r.res.Table = complexity.NewTable(bundle.CountryProduct, bundle.Products, bundle.Layout)

	r.metrics.RowsLoaded.Set(float64(bundle.Stats.Kept))
	r.metrics.DistanceAdjusted.Set(float64(bundle.Stats.DistanceAdjusted))
	r.log.Info("data loaded",
		zap.Int("rows_read", bundle.Stats.Read),
		zap.Int("rows_kept", bundle.Stats.Kept),
		zap.Int("distance_adjusted", bundle.Stats.DistanceAdjusted),
		zap.Int("products", len(bundle.Products)),
		zap.Int("layout_nodes", len(bundle.Layout)),
		zap.Int("edges", len(bundle.Edges)),
		zap.Int("country_year", len(bundle.CountryYear)))
	return nil
}

func (r *run) qa() error {
	t := r.res.Table
	r.res.Dropped = complexity.DropDuplicatePairs(t)
	r.metrics.ProductsDropped.Set(float64(len(r.res.Dropped)))
	if len(r.res.Dropped) > 0 {
		r.log.Warn("dropped products with duplicate country-product pairs",
			zap.Int("count", len(r.res.Dropped)),
			zap.Strings("products", r.res.Dropped))
	}
	if err := complexity.Validate(t); err != nil {
		return err
	}

	r.metrics.Countries.Set(float64(len(t.Countries())))
	r.metrics.Products.Set(float64(len(t.Products())))
	return nil
}

func (r *run) presence() error {
	complexity.AddRCABinary(r.res.Table, r.cfg.RCAThreshold)
	complexity.AddPeerRelativePresence(r.res.Table, r.cfg.PresenceEps)
	return nil
}

func (r *run) fit() error {
	t := r.res.Table
	complexity.AddDensityFromDistance(t)
	if !r.cfg.FitRecompute {
		return nil
	}

	r.res.Proximity = complexity.RecomputeDensityFromProximity(t)
	r.res.Agreement, r.res.MeanAgreement = complexity.DensityAgreement(t)
	if !math.IsNaN(r.res.MeanAgreement) {
		r.metrics.DensityAgreement.Set(r.res.MeanAgreement)
	}
	r.log.Info("density recomputed from proximity",
		zap.Float64("mean_correlation", r.res.MeanAgreement),
		zap.Int("countries", len(r.res.Agreement)))

	path := r.output("density_recomputed.csv")
	if err := report.WriteDensityRecomputed(path, t); err != nil {
		return err
	}
	r.wrote(path)

	path = r.output("density_agreement.csv")
	if err := report.WriteDensityAgreement(path, r.res.Agreement); err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *run) ranking() error {
	r.res.Top = complexity.RankOpportunities(r.res.Table, complexity.RankOptions{
		Threshold:               r.cfg.RCAThreshold,
		TopN:                    r.cfg.TopN,
		ExcludeNaturalResources: r.cfg.ExcludeNaturalResources,
	})

	candidates := 0
	for _, row := range r.res.Table.Rows {
		if row.IsCandidate {
			candidates++
		}
	}
	r.metrics.Candidates.Set(float64(candidates))
	r.log.Info("opportunities ranked",
		zap.Int("candidates", candidates),
		zap.Int("ranked", len(r.res.Top)))

	path := r.output("top_opportunities.csv")
	if err := report.WriteTopOpportunities(path, r.res.Top); err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *run) viz() error {
	if !r.cfg.Viz.Enabled {
		r.log.Info("figures disabled")
		return nil
	}

	t := r.res.Table
	for _, country := range t.Countries() {
		rows := t.Select(country)
		dir := filepath.Join(r.cfg.Output.Dir, country)

		space, err := viz.ProductSpace(country, rows, r.res.Bundle.Layout, r.res.Bundle.Edges)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, "product_space.html")
		if err := viz.WriteHTML(path, country+" product space", space, viz.Width, viz.Height); err != nil {
			return err
		}
		r.wrote(path)

		scatter, err := viz.OpportunityScatter(country, rows, r.cfg.Viz.Presence)
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "opportunities_scatter.html")
		if err := viz.WriteHTML(path, country+" opportunities", scatter, viz.Width, viz.Height); err != nil {
			return err
		}
		r.wrote(path)
	}
	return nil
}

func (r *run) similarity() error {
	r.res.Cosine = complexity.CountrySimilarityCosine(r.res.Table)
	path := r.output("similarity_cosine.csv")
	if err := report.WriteSimilarity(path, r.res.Cosine); err != nil {
		return err
	}
	r.wrote(path)

	if r.cfg.SimilarityMetric != config.SimilarityJaccard {
		return nil
	}
	r.res.Jaccard = complexity.CountrySimilarityJaccard(r.res.Table)
	path = r.output("similarity_jaccard.csv")
	if err := report.WriteSimilarity(path, r.res.Jaccard); err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *run) summaries() error {
	r.res.Summaries, r.res.Clusters = complexity.Summarize(
		r.res.Table, r.res.Bundle.CountryYear, r.res.Top, r.cfg.RCAThreshold)

	path := r.output("country_summary.csv")
	if err := report.WriteCountrySummary(path, r.res.Summaries, r.res.Clusters); err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *run) sensitivity() error {
	r.res.Sweep = complexity.SweepThresholds(r.res.Table, r.cfg.Sensitivity.RCAThresholds)
	for _, res := range r.res.Sweep {
		total := 0
		for _, n := range res.Candidates {
			total += n
		}
		r.log.Info("threshold sweep",
			zap.Float64("rca_threshold", res.Threshold),
			zap.Int("candidates", total),
			zap.Int("countries", len(res.Candidates)))
	}

	path := r.output("threshold_sweep.csv")
	if err := report.WriteThresholdSweep(path, r.res.Sweep, r.res.Table.Countries()); err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *run) report() error {
	if r.cfg.Output.Workbook {
		path := r.output("atlas_outputs.xlsx")
		err := report.WriteWorkbook(path, report.Workbook{
			Top:       r.res.Top,
			Summaries: r.res.Summaries,
			Clusters:  r.res.Clusters,
			Sweep:     r.res.Sweep,
			Agreement: r.res.Agreement,
		})
		if err != nil {
			return err
		}
		r.wrote(path)
	}

	if r.cfg.Output.Brief {
		path := r.output("brief.md")
		err := report.WriteBrief(path, report.Brief{
			RunID:         r.res.RunID,
			Year:          r.cfg.Year,
			Threshold:     r.cfg.RCAThreshold,
			Products:      len(r.res.Table.Products()),
			Summaries:     r.res.Summaries,
			Top:           r.res.Top,
			Sweep:         r.res.Sweep,
			MeanAgreement: r.res.MeanAgreement,
			GeneratedAt:   r.now(),
		})
		if err != nil {
			return err
		}
		r.wrote(path)
	}
	return nil
}
