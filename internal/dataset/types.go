package dataset

// CountryProduct is one row of the country-product-year extract.
type CountryProduct struct {
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
}

// Product is one row of the HS92 product classification.
type Product struct {
	ID              int
	Code            string
	Level           int
	Name            string
	NameShort       string
	ParentID        *int
	Hierarchy       string
	ShowFeasibility bool
	NaturalResource bool
}

// LayoutNode places a product in the 2-D product space.
type LayoutNode struct {
	Code    string
	X       float64
	Y       float64
	Cluster string
}

// Edge is one of the strongest proximity links between two products.
type Edge struct {
	Source string
	Target string
}

// CountryYear carries aggregate totals and complexity indices for a country.
type CountryYear struct {
	CountryID        int
	Country          string
	Year             int
	ExportValueTotal float64
	ImportValueTotal float64
	ECI              float64
	COI              float64
	Diversity        float64
	GrowthProj       float64
}

// Stats describes what the country-product loader kept and repaired.
type Stats struct {
	Read             int
	Kept             int
	DistanceAdjusted int
}
