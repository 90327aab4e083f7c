package viz

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"productspace/internal/complexity"
	"productspace/internal/config"
)

const maxLabels = 10

var (
	otherColor     = color.RGBA{R: 150, G: 150, B: 150, A: 160}
	candidateColor = color.RGBA{R: 220, G: 20, B: 60, A: 255}
)

func presenceValue(r complexity.Row, presence string) float64 {
	if presence == config.PresenceRel {
		return r.RelPresence
	}
	return r.ExportRCA
}

func presenceLabel(presence string) string {
	if presence == config.PresenceRel {
		return "Relative presence"
	}
	return "Export RCA"
}

// OpportunityScatter plots density against presence for one country's rows.
// Candidates are highlighted and the best scored ones labelled. Rows without a
// finite coordinate are left out.
func OpportunityScatter(country string, rows []complexity.Row, presence string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Opportunities: %s", country)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Density"
	p.Y.Label.Text = presenceLabel(presence)

	var others, candidates plotter.XYs
	var ranked []complexity.Row
	for _, r := range rows {
		y := presenceValue(r, presence)
		if !finite(r.Density) || !finite(y) {
			continue
		}
		xy := plotter.XY{X: r.Density, Y: y}
		if r.IsCandidate {
			candidates = append(candidates, xy)
			ranked = append(ranked, r)
		} else {
			others = append(others, xy)
		}
	}

	if len(others) > 0 {
		scatter, err := plotter.NewScatter(others)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = otherColor
		scatter.GlyphStyle.Radius = vg.Points(2)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("Other products", scatter)
	}

	if len(candidates) > 0 {
		scatter, err := plotter.NewScatter(candidates)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = candidateColor
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("Candidates", scatter)

		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
		if len(ranked) > maxLabels {
			ranked = ranked[:maxLabels]
		}
		points := make(plotter.XYs, len(ranked))
		labels := make([]string, len(ranked))
		for i, r := range ranked {
			points[i].X = r.Density
			points[i].Y = presenceValue(r, presence)
			labels[i] = r.Label()
		}
		labelPoints, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
		if err != nil {
			return nil, err
		}
		p.Add(labelPoints)
	}

	p.Add(plotter.NewGrid())
	return p, nil
}
