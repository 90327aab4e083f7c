// Package report writes the run outputs: CSV tables, the excel workbook and
// the markdown brief.
package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"productspace/internal/complexity"
)

// listSep joins product names inside one cell.
const listSep = "; "

var opportunityHeader = []string{
	"country_iso3_code", "product_hs92_code", "product_name", "product_space_cluster_name",
	"natural_resource", "export_value", "export_rca", "x_binary", "rel_presence",
	"density", "density_recomputed", "pci", "cog", "score",
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return file.Close()
}

// formatFloat leaves missing values as empty cells.
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func WriteTopOpportunities(path string, rows []complexity.Row) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Country,
			r.Product,
			r.Label(),
			r.Cluster,
			strconv.FormatBool(r.NaturalResource),
			strconv.FormatInt(r.ExportValue, 10),
			formatFloat(r.ExportRCA),
			strconv.Itoa(r.XBinary),
			formatFloat(r.RelPresence),
			formatFloat(r.Density),
			formatFloat(r.DensityRecomputed),
			formatFloat(r.PCI),
			formatFloat(r.COG),
			formatFloat(r.Score),
		})
	}
	return writeCSV(path, opportunityHeader, out)
}

// WriteSimilarity writes a square matrix with country codes as the first
// column and as the header.
func WriteSimilarity(path string, m *complexity.Matrix) error {
	header := append([]string{"country_iso3_code"}, m.Labels...)
	out := make([][]string, 0, len(m.Labels))
	for i, label := range m.Labels {
		row := []string{label}
		for j := range m.Labels {
			row = append(row, formatFloat(m.Values.At(i, j)))
		}
		out = append(out, row)
	}
	return writeCSV(path, header, out)
}

// WriteCountrySummary writes one row per country with one share column per
// product-space cluster.
func WriteCountrySummary(path string, summaries []complexity.CountrySummary, clusters []string) error {
	header := []string{
		"country_iso3_code", "export_value_total", "eci", "growth_proj", "diversity", "coi",
		"num_products", "top_strengths", "top_opportunities",
	}
	header = append(header, clusters...)

	out := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		row := []string{
			s.Country,
			formatFloat(s.ExportValueTotal),
			formatFloat(s.ECI),
			formatFloat(s.GrowthProj),
			formatFloat(s.Diversity),
			formatFloat(s.COI),
			strconv.Itoa(s.NumProducts),
			strings.Join(s.TopStrengths, listSep),
			strings.Join(s.TopOpportunities, listSep),
		}
		for _, c := range clusters {
			share, ok := s.Clusters[c]
			if !ok {
				share = 0
			}
			row = append(row, formatFloat(share))
		}
		out = append(out, row)
	}
	return writeCSV(path, header, out)
}

// WriteDensityRecomputed writes the given and recomputed density of every
// country-product pair.
func WriteDensityRecomputed(path string, t *complexity.Table) error {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, []string{
			r.Country, r.Product, formatFloat(r.Density), formatFloat(r.DensityRecomputed),
		})
	}
	return writeCSV(path, []string{"country_iso3_code", "product_hs92_code", "density", "density_recomputed"}, out)
}

func WriteDensityAgreement(path string, corr []complexity.CountryCorrelation) error {
	out := make([][]string, 0, len(corr))
	for _, c := range corr {
		out = append(out, []string{c.Country, formatFloat(c.Correlation), strconv.Itoa(c.Pairs)})
	}
	return writeCSV(path, []string{"country_iso3_code", "correlation", "pairs"}, out)
}

// WriteThresholdSweep writes the candidate count of every country under every
// threshold, countries without candidates included as 0.
func WriteThresholdSweep(path string, results []complexity.SweepResult, countries []string) error {
	countries = append([]string(nil), countries...)
	sort.Strings(countries)

	var out [][]string
	for _, res := range results {
		for _, c := range countries {
			out = append(out, []string{
				formatFloat(res.Threshold), c, strconv.Itoa(res.Candidates[c]),
			})
		}
	}
	return writeCSV(path, []string{"rca_threshold", "country_iso3_code", "candidates"}, out)
}
