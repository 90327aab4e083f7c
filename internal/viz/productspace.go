// Package viz draws per-country product-space figures with gonum/plot and
// embeds them as SVG in standalone HTML pages.
package viz

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"productspace/internal/complexity"
	"productspace/internal/dataset"
)

var edgeColor = color.RGBA{R: 190, G: 190, B: 190, A: 255}

// nodeRadius grows with log1p of the country's RCA in the product. Products the
// country does not export get the minimum size.
func nodeRadius(rca float64) vg.Length {
	if math.IsNaN(rca) || rca < 0 {
		rca = 0
	}
	return vg.Points(1.5 + 3*math.Log1p(rca))
}

// ProductSpace places every layout node, colored by cluster and sized by the
// country's RCA, over the top proximity edges.
func ProductSpace(country string, rows []complexity.Row, layout []dataset.LayoutNode, edges []dataset.Edge) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Product space: %s", country)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.HideAxes()

	rca := make(map[string]float64, len(rows))
	for _, r := range rows {
		rca[r.Product] = r.ExportRCA
	}

	pos := make(map[string]plotter.XY, len(layout))
	clusters := map[string][]dataset.LayoutNode{}
	for _, n := range layout {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			continue
		}
		pos[n.Code] = plotter.XY{X: n.X, Y: n.Y}
		clusters[n.Cluster] = append(clusters[n.Cluster], n)
	}

	for _, e := range edges {
		a, okA := pos[e.Source]
		b, okB := pos[e.Target]
		if !okA || !okB {
			continue
		}
		line, err := plotter.NewLine(plotter.XYs{a, b})
		if err != nil {
			return nil, err
		}
		line.Color = edgeColor
		line.Width = vg.Points(0.3)
		p.Add(line)
	}

	names := make([]string, 0, len(clusters))
	for c := range clusters {
		names = append(names, c)
	}
	sort.Strings(names)

	for i, name := range names {
		nodes := clusters[name]
		points := make(plotter.XYs, len(nodes))
		for k, n := range nodes {
			points[k].X = n.X
			points[k].Y = n.Y
		}

		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return nil, err
		}
		c := plotutil.Color(i)
		scatter.GlyphStyle.Color = c
		scatter.GlyphStyleFunc = func(k int) draw.GlyphStyle {
			v, ok := rca[nodes[k].Code]
			if !ok {
				v = 0
			}
			return draw.GlyphStyle{Color: c, Radius: nodeRadius(v), Shape: draw.CircleGlyph{}}
		}
		p.Add(scatter)

		label := name
		if label == "" {
			label = "(no cluster)"
		}
		p.Legend.Add(label, scatter)
	}
	p.Legend.Top = true

	return p, nil
}
