package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"productspace/internal/complexity"
)

// Brief is the input of the markdown brief.
type Brief struct {
	RunID         string
	Year          int
	Threshold     float64
	Products      int
	Summaries     []complexity.CountrySummary
	Top           []complexity.Row
	Sweep         []complexity.SweepResult
	MeanAgreement float64
	GeneratedAt   time.Time
}

const briefListLimit = 3

func formatNumber(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	switch {
	case math.Abs(v) >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case math.Abs(v) >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case math.Abs(v) >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return fmt.Sprintf("%.2f", v)
}

func firstN(items []string, n int) string {
	if len(items) == 0 {
		return "-"
	}
	if len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, listSep)
}

func RenderBrief(b Brief) string {
	report := fmt.Sprintf("# Product Space Brief %d\n\n", b.Year)
	report += fmt.Sprintf("Run `%s`, RCA threshold %g.\n\n", b.RunID, b.Threshold)

	report += "## Summary\n\n"
	report += fmt.Sprintf("- **Countries**: %d\n", len(b.Summaries))
	report += fmt.Sprintf("- **Products**: %d\n", b.Products)
	report += fmt.Sprintf("- **Ranked opportunities**: %d\n", len(b.Top))
	if math.IsNaN(b.MeanAgreement) {
		report += "- **Density agreement**: not computed\n"
	} else {
		report += fmt.Sprintf("- **Density agreement** (mean correlation, given vs recomputed): %.3f\n", b.MeanAgreement)
	}

	if len(b.Sweep) > 0 {
		report += "\n## Threshold sensitivity\n\n"
		report += "| RCA threshold | Candidates | Countries with candidates |\n"
		report += "|---------------|------------|---------------------------|\n"
		for _, res := range b.Sweep {
			total := 0
			for _, n := range res.Candidates {
				total += n
			}
			report += fmt.Sprintf("| %g | %d | %d |\n", res.Threshold, total, len(res.Candidates))
		}
	}

	report += "\n## Countries\n\n"
	report += "| Country | Export value | ECI | Products | Top strengths | Top opportunities |\n"
	report += "|---------|--------------|-----|----------|---------------|-------------------|\n"
	for _, s := range b.Summaries {
		report += fmt.Sprintf("| %s | %s | %s | %d | %s | %s |\n",
			s.Country,
			formatNumber(s.ExportValueTotal),
			formatNumber(s.ECI),
			s.NumProducts,
			firstN(s.TopStrengths, briefListLimit),
			firstN(s.TopOpportunities, briefListLimit))
	}

	report += fmt.Sprintf("\n---\n*Generated %s*\n", b.GeneratedAt.Format("2 January 2006 15:04 MST"))
	return report
}

func WriteBrief(path string, b Brief) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.WriteFile(path, []byte(RenderBrief(b)), 0o644); err != nil {
		return fmt.Errorf("report: write brief %s: %w", path, err)
	}
	return nil
}
