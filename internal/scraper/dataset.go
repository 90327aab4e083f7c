// Package scraper walks the dataset table of the Atlas data-downloads portal
// through a Portal adapter, saves each dataset's feature description, starts
// its download and keeps an overview CSV of what was fetched.
package scraper

import (
	"strconv"
)

// Dataset is one downloadable file of the portal. Listing fields come from
// the table row, file fields from the detail modal.
type Dataset struct {
	Name           string
	DataType       string
	Classification string
	ProductLevel   *int
	Years          string
	ComplexityData *bool

	Filename   string
	FileSize   string
	LastUpdate string
}

var overviewColumns = []string{
	"name", "data_type", "classification", "product_level", "years",
	"complexity_data", "filename", "file_size", "last_update",
}

// Record renders the dataset as an overview row. Unknown values are empty.
func (d Dataset) Record() map[string]string {
	rec := map[string]string{
		"name":            d.Name,
		"data_type":       d.DataType,
		"classification":  d.Classification,
		"product_level":   "",
		"years":           d.Years,
		"complexity_data": "",
		"filename":        d.Filename,
		"file_size":       d.FileSize,
		"last_update":     d.LastUpdate,
	}
	if d.ProductLevel != nil {
		rec["product_level"] = strconv.Itoa(*d.ProductLevel)
	}
	if d.ComplexityData != nil {
		rec["complexity_data"] = strconv.FormatBool(*d.ComplexityData)
	}
	return rec
}

// WithDetail fills the file fields from an opened detail.
func (d Dataset) WithDetail(det *Detail) Dataset {
	d.Filename = det.Filename
	d.FileSize = det.FileSize
	d.LastUpdate = det.LastUpdate
	return d
}
