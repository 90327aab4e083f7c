package dataset

import (
	"fmt"
	"math"
)

var countryProductColumns = []string{
	"country_id", "country_iso3_code", "product_id", "product_hs92_code", "year",
	"export_value", "import_value", "global_market_share", "export_rca",
	"distance", "cog", "pci",
}

var productColumns = []string{
	"product_id", "product_hs92_code", "product_level", "product_name",
	"product_name_short", "product_parent_id", "product_id_hierarchy",
	"show_feasibility", "natural_resource",
}

var layoutColumns = []string{
	"product_hs92_code", "product_space_x", "product_space_y", "product_space_cluster_name",
}

var countryYearColumns = []string{
	"country_id", "country_iso3_code", "year", "export_value", "import_value",
	"eci", "coi", "diversity", "growth_proj",
}

// Paths locates the five extracts a run reads.
type Paths struct {
	CountryProduct string
	ProductMeta    string
	Layout         string
	Edges          string
	CountryYear    string
}

// Bundle holds every extract loaded for one target year.
type Bundle struct {
	Year           int
	CountryProduct []CountryProduct
	Stats          Stats
	Products       []Product
	Layout         []LayoutNode
	Edges          []Edge
	CountryYear    []CountryYear
}

// Load reads all extracts. Country-year rows are narrowed to the target year.
func Load(paths Paths, year int) (*Bundle, error) {
	cp, stats, err := LoadCountryProduct(paths.CountryProduct, year)
	if err != nil {
		return nil, err
	}
	products, err := LoadProducts(paths.ProductMeta)
	if err != nil {
		return nil, err
	}
	layout, err := LoadLayout(paths.Layout)
	if err != nil {
		return nil, err
	}
	edges, err := LoadEdges(paths.Edges)
	if err != nil {
		return nil, err
	}
	countryYear, err := LoadCountryYear(paths.CountryYear)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Year:           year,
		CountryProduct: cp,
		Stats:          stats,
		Products:       products,
		Layout:         layout,
		Edges:          edges,
		CountryYear:    FilterCountryYear(countryYear, year),
	}, nil
}

// LoadCountryProduct reads the country-product-year extract and keeps the rows
// of the requested year. Missing distances become 0 and all distances are
// clamped to [0, 1]; Stats.DistanceAdjusted counts the repaired cells.
func LoadCountryProduct(path string, year int) ([]CountryProduct, Stats, error) {
	var stats Stats

	f, err := readFrame(path, countryProductColumns...)
	if err != nil {
		return nil, stats, err
	}

	var rows []CountryProduct
	for i, rec := range f.records {
		stats.Read++

		y, err := f.int(i, rec, "year")
		if err != nil {
			return nil, stats, err
		}
		if int(y) != year {
			continue
		}

		row := CountryProduct{
			Year:    int(y),
			Country: f.str(rec, "country_iso3_code"),
			Product: f.str(rec, "product_hs92_code"),
		}

		ints := []struct {
			col string
			dst *int64
		}{
			{"export_value", &row.ExportValue},
			{"import_value", &row.ImportValue},
		}
		for _, c := range ints {
			if *c.dst, err = f.int(i, rec, c.col); err != nil {
				return nil, stats, err
			}
		}

		countryID, err := f.int(i, rec, "country_id")
		if err != nil {
			return nil, stats, err
		}
		productID, err := f.int(i, rec, "product_id")
		if err != nil {
			return nil, stats, err
		}
		row.CountryID = int(countryID)
		row.ProductID = int(productID)

		floats := []struct {
			col string
			dst *float64
		}{
			{"global_market_share", &row.GlobalMarketShare},
			{"export_rca", &row.ExportRCA},
			{"distance", &row.Distance},
			{"cog", &row.COG},
			{"pci", &row.PCI},
		}
		for _, c := range floats {
			if *c.dst, err = f.float(i, rec, c.col); err != nil {
				return nil, stats, err
			}
		}

		if d := clampDistance(row.Distance); d != row.Distance {
			row.Distance = d
			stats.DistanceAdjusted++
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, stats, fmt.Errorf("%w: %d in %s", ErrYearNotFound, year, path)
	}
	stats.Kept = len(rows)
	return rows, stats, nil
}

func clampDistance(d float64) float64 {
	if math.IsNaN(d) {
		return 0
	}
	return math.Max(0, math.Min(1, d))
}

func LoadProducts(path string) ([]Product, error) {
	f, err := readFrame(path, productColumns...)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(f.records))
	for i, rec := range f.records {
		id, err := f.int(i, rec, "product_id")
		if err != nil {
			return nil, err
		}
		level, err := f.int(i, rec, "product_level")
		if err != nil {
			return nil, err
		}
		parent, err := f.nullableInt(i, rec, "product_parent_id")
		if err != nil {
			return nil, err
		}
		showFeasibility, err := f.bool(i, rec, "show_feasibility")
		if err != nil {
			return nil, err
		}
		naturalResource, err := f.bool(i, rec, "natural_resource")
		if err != nil {
			return nil, err
		}

		p := Product{
			ID:              int(id),
			Code:            f.str(rec, "product_hs92_code"),
			Level:           int(level),
			Name:            f.str(rec, "product_name"),
			NameShort:       f.str(rec, "product_name_short"),
			Hierarchy:       f.str(rec, "product_id_hierarchy"),
			ShowFeasibility: showFeasibility,
			NaturalResource: naturalResource,
		}
		if parent != nil {
			v := int(*parent)
			p.ParentID = &v
		}
		products = append(products, p)
	}
	return products, nil
}

func LoadLayout(path string) ([]LayoutNode, error) {
	f, err := readFrame(path, layoutColumns...)
	if err != nil {
		return nil, err
	}

	nodes := make([]LayoutNode, 0, len(f.records))
	for i, rec := range f.records {
		x, err := f.float(i, rec, "product_space_x")
		if err != nil {
			return nil, err
		}
		y, err := f.float(i, rec, "product_space_y")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, LayoutNode{
			Code:    f.str(rec, "product_hs92_code"),
			X:       x,
			Y:       y,
			Cluster: f.str(rec, "product_space_cluster_name"),
		})
	}
	return nodes, nil
}

// LoadEdges reads the top proximity edges. Named source/target columns win;
// otherwise the first two columns are taken in order.
func LoadEdges(path string) ([]Edge, error) {
	f, err := readFrame(path)
	if err != nil {
		return nil, err
	}

	source, target := "product_hs92_code_source", "product_hs92_code_target"
	_, hasSource := f.index[source]
	_, hasTarget := f.index[target]
	if !hasSource || !hasTarget {
		if len(f.columns) < 2 {
			return nil, fmt.Errorf("%w in %s: need source and target product codes", ErrMissingColumn, path)
		}
		source, target = f.columns[0], f.columns[1]
	}

	edges := make([]Edge, 0, len(f.records))
	for _, rec := range f.records {
		edges = append(edges, Edge{
			Source: f.str(rec, source),
			Target: f.str(rec, target),
		})
	}
	return edges, nil
}

func LoadCountryYear(path string) ([]CountryYear, error) {
	f, err := readFrame(path, countryYearColumns...)
	if err != nil {
		return nil, err
	}

	rows := make([]CountryYear, 0, len(f.records))
	for i, rec := range f.records {
		countryID, err := f.int(i, rec, "country_id")
		if err != nil {
			return nil, err
		}
		year, err := f.int(i, rec, "year")
		if err != nil {
			return nil, err
		}

		row := CountryYear{
			CountryID: int(countryID),
			Country:   f.str(rec, "country_iso3_code"),
			Year:      int(year),
		}

		totals := []struct {
			col string
			dst *float64
		}{
			{"export_value", &row.ExportValueTotal},
			{"import_value", &row.ImportValueTotal},
		}
		for _, c := range totals {
			v, err := f.nullableInt(i, rec, c.col)
			if err != nil {
				return nil, err
			}
			*c.dst = math.NaN()
			if v != nil {
				*c.dst = float64(*v)
			}
		}

		floats := []struct {
			col string
			dst *float64
		}{
			{"eci", &row.ECI},
			{"coi", &row.COI},
			{"diversity", &row.Diversity},
			{"growth_proj", &row.GrowthProj},
		}
		for _, c := range floats {
			if *c.dst, err = f.float(i, rec, c.col); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func FilterCountryYear(rows []CountryYear, year int) []CountryYear {
	var out []CountryYear
	for _, r := range rows {
		if r.Year == year {
			out = append(out, r)
		}
	}
	return out
}
