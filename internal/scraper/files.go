package scraper

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FeaturePath is where the feature description of filename is stored:
// <dir>/<filename without its last extension>_features.csv.
func FeaturePath(dir, filename string) string {
	base := filename
	if i := strings.LastIndex(filename, "."); i > 0 {
		base = filename[:i]
	}
	return filepath.Join(dir, base+"_features.csv")
}

// WriteFeatureDescription saves the table as CSV next to the download. Tables
// without a header or rows are skipped and "" is returned. Short rows are
// padded and long ones cut to the header width.
func WriteFeatureDescription(dir, filename string, table FeatureTable) (string, error) {
	if len(table.Header) == 0 || len(table.Rows) == 0 {
		return "", nil
	}

	path := FeaturePath(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("scraper: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		return "", fmt.Errorf("scraper: write %s: %w", path, err)
	}
	for _, row := range table.Rows {
		out := make([]string, len(table.Header))
		copy(out, row)
		if err := w.Write(out); err != nil {
			return "", fmt.Errorf("scraper: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("scraper: write %s: %w", path, err)
	}
	return path, f.Close()
}

// PendingDownloads lists the partial browser downloads in dir.
func PendingDownloads(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.crdownload"))
}

// WaitForDownloads polls dir until no partial download is left. It reports
// false if timeout expires first.
func WaitForDownloads(ctx context.Context, dir string, timeout, poll time.Duration) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		pending, err := PendingDownloads(dir)
		if err != nil {
			return false, err
		}
		if len(pending) == 0 {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}
