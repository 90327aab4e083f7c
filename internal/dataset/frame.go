package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrMissingColumn = errors.New("dataset: missing column")
	ErrYearNotFound  = errors.New("dataset: year not available")
)

type frame struct {
	path    string
	columns []string
	index   map[string]int
	records [][]string
}

func readFrame(path string, required ...string) (*frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer file.Close()

	return parseFrame(path, file, required...)
}

func parseFrame(path string, r io.Reader, required ...string) (*frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset: %s has no header", path)
	}

	f := &frame{path: path, index: map[string]int{}, records: records[1:]}
	for i, col := range records[0] {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		f.columns = append(f.columns, col)
		if _, seen := f.index[col]; !seen {
			f.index[col] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := f.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: %s", ErrMissingColumn, path, strings.Join(missing, ", "))
	}
	return f, nil
}

func (f *frame) cell(rec []string, col string) string {
	i, ok := f.index[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (f *frame) str(rec []string, col string) string {
	return f.cell(rec, col)
}

func (f *frame) int(row int, rec []string, col string) (int64, error) {
	raw := f.cell(rec, col)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("dataset: %s row %d column %s: %w", f.path, row+2, col, err)
	}
	return v, nil
}

func (f *frame) nullableInt(row int, rec []string, col string) (*int64, error) {
	if isMissing(f.cell(rec, col)) {
		return nil, nil
	}
	v, err := f.int(row, rec, col)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (f *frame) float(row int, rec []string, col string) (float64, error) {
	raw := f.cell(rec, col)
	if isMissing(raw) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("dataset: %s row %d column %s: %w", f.path, row+2, col, err)
	}
	return v, nil
}

func (f *frame) bool(row int, rec []string, col string) (bool, error) {
	raw := f.cell(rec, col)
	if isMissing(raw) {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("dataset: %s row %d column %s: %w", f.path, row+2, col, err)
	}
	return v, nil
}

func isMissing(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "na", "n/a", "nan", "null", "<na>":
		return true
	}
	return false
}
