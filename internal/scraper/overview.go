package scraper

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const (
	OverviewFile   = "datasets_overview.csv"
	lastUpdateForm = "2006-01-02"
	overviewKey    = "filename"
)

// Overview is the bookkeeping CSV of downloaded datasets, keyed by filename.
type Overview struct {
	Path string
	log  *zap.Logger
}

func NewOverview(dir string, log *zap.Logger) *Overview {
	return &Overview{Path: filepath.Join(dir, OverviewFile), log: log}
}

type overviewTable struct {
	header  []string
	records []map[string]string
}

func (o *Overview) read() (*overviewTable, error) {
	f, err := os.Open(o.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &overviewTable{}, nil
	}

	t := &overviewTable{header: rows[0]}
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(t.header))
		for i, col := range t.header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		t.records = append(t.records, rec)
	}
	return t, nil
}

func (o *Overview) write(t *overviewTable) error {
	if err := os.MkdirAll(filepath.Dir(o.Path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(o.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		return err
	}
	for _, rec := range t.records {
		row := make([]string, len(t.header))
		for i, col := range t.header {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (t *overviewTable) has(col string) bool {
	for _, c := range t.header {
		if c == col {
			return true
		}
	}
	return false
}

// Current reports whether the overview already lists ds at its scraped
// last_update. A missing or unreadable overview is never current; one without
// filename and last_update columns is deleted. When the portal shows a newer
// date the stale entries are evicted.
func (o *Overview) Current(ds Dataset) (bool, error) {
	t, err := o.read()
	if err != nil {
		o.log.Warn("overview unreadable", zap.String("path", o.Path), zap.Error(err))
		return false, nil
	}
	if t == nil {
		return false, nil
	}
	if !t.has(overviewKey) || !t.has("last_update") {
		if err := os.Remove(o.Path); err != nil {
			return false, fmt.Errorf("scraper: remove malformed overview: %w", err)
		}
		return false, nil
	}

	var latest time.Time
	matched := false
	for _, rec := range t.records {
		if rec[overviewKey] != ds.Filename {
			continue
		}
		matched = true
		if d, err := time.Parse(lastUpdateForm, rec["last_update"]); err == nil && d.After(latest) {
			latest = d
		}
	}
	if !matched {
		return false, nil
	}
	if ds.LastUpdate == "" || latest.IsZero() {
		return true, nil
	}

	scraped, err := time.Parse(lastUpdateForm, ds.LastUpdate)
	if err != nil {
		return false, fmt.Errorf("scraper: last update %q: %w", ds.LastUpdate, err)
	}
	if !scraped.After(latest) {
		return true, nil
	}

	kept := t.records[:0]
	for _, rec := range t.records {
		if rec[overviewKey] != ds.Filename {
			kept = append(kept, rec)
		}
	}
	t.records = kept
	if err := o.write(t); err != nil {
		o.log.Warn("could not evict stale overview entry", zap.String("filename", ds.Filename), zap.Error(err))
	}
	return false, nil
}

// Upsert merges datasets into the overview. Columns of both sides are kept,
// and for a repeated filename the last record wins. It returns the number of
// rows now in the overview.
func (o *Overview) Upsert(datasets []Dataset) (int, error) {
	if len(datasets) == 0 {
		return 0, nil
	}

	old, err := o.read()
	if err != nil {
		o.log.Warn("failed to read existing overview, creating a new one", zap.String("path", o.Path), zap.Error(err))
		old = nil
	}

	merged := &overviewTable{}
	if old != nil {
		merged.header = append(merged.header, old.header...)
		merged.records = append(merged.records, old.records...)
	}
	for _, col := range overviewColumns {
		if !merged.has(col) {
			merged.header = append(merged.header, col)
		}
	}
	for _, ds := range datasets {
		merged.records = append(merged.records, ds.Record())
	}

	last := map[string]int{}
	for i, rec := range merged.records {
		last[rec[overviewKey]] = i
	}
	deduped := make([]map[string]string, 0, len(last))
	for i, rec := range merged.records {
		if last[rec[overviewKey]] == i {
			deduped = append(deduped, rec)
		}
	}
	merged.records = deduped

	if err := o.write(merged); err != nil {
		return 0, fmt.Errorf("scraper: write overview: %w", err)
	}
	return len(merged.records), nil
}
