package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

const (
	Width  = 12 * vg.Inch
	Height = 9 * vg.Inch
)

var page = template.Must(template.New("figure").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<figure>{{.SVG}}</figure>
</body>
</html>
`))

// SVG renders p and strips everything before the root element so the result
// can be inlined into a page.
func SVG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "svg")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if i := bytes.Index(out, []byte("<svg")); i >= 0 {
		out = out[i:]
	}
	return out, nil
}

// WriteHTML saves p as a standalone page at path, creating its directory.
func WriteHTML(path, title string, p *plot.Plot, w, h vg.Length) error {
	svg, err := SVG(p, w, h)
	if err != nil {
		return fmt.Errorf("viz: render %s: %w", title, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("viz: %w", err)
	}

	var buf strings.Builder
	err = page.Execute(&buf, struct {
		Title string
		SVG   template.HTML
	}{title, template.HTML(svg)})
	if err != nil {
		return fmt.Errorf("viz: page %s: %w", title, err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("viz: write %s: %w", path, err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
