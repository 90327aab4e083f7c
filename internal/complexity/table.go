package complexity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"productspace/internal/dataset"
)

// Row is one country-product pair of the working table. Loaded columns are
// followed by the joined product metadata and layout, then derived metrics.
// Missing numeric values are NaN.
type Row struct {
	CountryID         int
	Country           string
	ProductID         int
	Product           string
	Year              int
	ExportValue       int64
	ImportValue       int64
	GlobalMarketShare float64
	ExportRCA         float64
	Distance          float64
	COG               float64
	PCI               float64

	ProductName     string
	ProductLevel    int
	NaturalResource bool
	ShowFeasibility bool
	Cluster         string
	LayoutX         float64
	LayoutY         float64

	XBinary           int
	Share             float64
	RelPresence       float64
	AbsPresence       float64
	Density           float64
	DensityRecomputed float64
	Score             float64
	IsCandidate       bool
}

// Label is the product name, or its code when the metadata has none.
func (r Row) Label() string {
	if r.ProductName != "" {
		return r.ProductName
	}
	return r.Product
}

type Table struct {
	Rows []Row
}

// NewTable left-joins product metadata and layout onto the country-product
// records by product code.
func NewTable(records []dataset.CountryProduct, products []dataset.Product, layout []dataset.LayoutNode) *Table {
	meta := make(map[string]dataset.Product, len(products))
	for _, p := range products {
		if _, ok := meta[p.Code]; !ok {
			meta[p.Code] = p
		}
	}
	nodes := make(map[string]dataset.LayoutNode, len(layout))
	for _, n := range layout {
		if _, ok := nodes[n.Code]; !ok {
			nodes[n.Code] = n
		}
	}

	nan := math.NaN()
	t := &Table{Rows: make([]Row, 0, len(records))}
	for _, rec := range records {
		row := Row{
			CountryID:         rec.CountryID,
			Country:           rec.Country,
			ProductID:         rec.ProductID,
			Product:           rec.Product,
			Year:              rec.Year,
			ExportValue:       rec.ExportValue,
			ImportValue:       rec.ImportValue,
			GlobalMarketShare: rec.GlobalMarketShare,
			ExportRCA:         rec.ExportRCA,
			Distance:          rec.Distance,
			COG:               rec.COG,
			PCI:               rec.PCI,
			LayoutX:           nan,
			LayoutY:           nan,
			Share:             nan,
			RelPresence:       nan,
			AbsPresence:       nan,
			Density:           nan,
			DensityRecomputed: nan,
			Score:             nan,
		}
		if p, ok := meta[rec.Product]; ok {
			row.ProductName = p.Name
			row.ProductLevel = p.Level
			row.NaturalResource = p.NaturalResource
			row.ShowFeasibility = p.ShowFeasibility
		}
		if n, ok := nodes[rec.Product]; ok {
			row.Cluster = n.Cluster
			row.LayoutX = n.X
			row.LayoutY = n.Y
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (t *Table) Clone() *Table {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	return &Table{Rows: rows}
}

// Countries returns the distinct country codes in sorted order.
func (t *Table) Countries() []string {
	return distinct(t.Rows, func(r Row) string { return r.Country })
}

// Products returns the distinct product codes in sorted order.
func (t *Table) Products() []string {
	return distinct(t.Rows, func(r Row) string { return r.Product })
}

// ByCountry groups row indices by country code.
func (t *Table) ByCountry() map[string][]int {
	groups := map[string][]int{}
	for i, r := range t.Rows {
		groups[r.Country] = append(groups[r.Country], i)
	}
	return groups
}

// Select returns the rows of one country, in table order.
func (t *Table) Select(country string) []Row {
	var rows []Row
	for _, r := range t.Rows {
		if r.Country == country {
			rows = append(rows, r)
		}
	}
	return rows
}

// Pivot builds a country × product matrix from value. Missing pairs and NaN
// values are 0. It returns a nil matrix for an empty table.
func (t *Table) Pivot(value func(Row) float64) (countries, products []string, m *mat.Dense) {
	countries = t.Countries()
	products = t.Products()
	if len(countries) == 0 || len(products) == 0 {
		return countries, products, nil
	}

	ci := indexOf(countries)
	pi := indexOf(products)
	m = mat.NewDense(len(countries), len(products), nil)
	for _, r := range t.Rows {
		v := value(r)
		if math.IsNaN(v) {
			continue
		}
		m.Set(ci[r.Country], pi[r.Product], v)
	}
	return countries, products, m
}

func distinct(rows []Row, key func(Row) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}
