package scraper

import (
	"context"
	"errors"
)

var (
	ErrNoDetail    = errors.New("scraper: dataset detail did not open")
	ErrBadFilename = errors.New("scraper: unusable file name in dataset detail")
)

// Row is a dataset listed on the current page.
type Row struct {
	Index   int
	Dataset Dataset
}

// FeatureTable is the column description table shown in a dataset's detail.
type FeatureTable struct {
	Header []string
	Rows   [][]string
}

type Detail struct {
	Filename    string
	FileSize    string
	LastUpdate  string
	Features    FeatureTable
	CanDownload bool
}

// Portal hides the portal's markup. At most one detail is open at a time;
// Download and Close act on it.
type Portal interface {
	ApplyFilter(ctx context.Context, column, value string) error
	Rows(ctx context.Context) ([]Row, error)
	Open(ctx context.Context, row Row) (*Detail, error)
	Download(ctx context.Context) error
	Close(ctx context.Context) error
	// NextPage advances the table and reports false on the last page.
	NextPage(ctx context.Context) (bool, error)
}
