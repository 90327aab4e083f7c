package complexity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicatePairs = errors.New("complexity: country-product pairs are not unique")
	ErrDistanceRange  = errors.New("complexity: distance outside [0, 1]")
)

type pairKey struct {
	country string
	product string
}

// DropDuplicatePairs removes every row of any product code that appears more
// than once for the same country, and returns the dropped codes sorted.
func DropDuplicatePairs(t *Table) []string {
	counts := map[pairKey]int{}
	for _, r := range t.Rows {
		counts[pairKey{r.Country, r.Product}]++
	}

	corrupted := map[string]struct{}{}
	for k, n := range counts {
		if n > 1 {
			corrupted[k.product] = struct{}{}
		}
	}
	if len(corrupted) == 0 {
		return nil
	}

	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if _, bad := corrupted[r.Product]; !bad {
			kept = append(kept, r)
		}
	}
	t.Rows = kept

	codes := make([]string, 0, len(corrupted))
	for c := range corrupted {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Validate checks the invariants the metrics rely on. Any violation means no
// output of the run can be trusted.
func Validate(t *Table) error {
	seen := make(map[pairKey]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		k := pairKey{r.Country, r.Product}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %s/%s", ErrDuplicatePairs, r.Country, r.Product)
		}
		seen[k] = struct{}{}
	}

	var bad []string
	for _, r := range t.Rows {
		if !(r.Distance >= 0 && r.Distance <= 1) {
			bad = append(bad, r.Country+"/"+r.Product)
			if len(bad) == 5 {
				break
			}
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrDistanceRange, strings.Join(bad, ", "))
	}
	return nil
}
