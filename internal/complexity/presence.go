package complexity

import "math"

const (
	DefaultRCAThreshold = 1.0
	DefaultPresenceEps  = 1e-12
)

// AddRCABinary sets XBinary to 1 where ExportRCA >= threshold and 0 elsewhere,
// including rows with a missing RCA.
func AddRCABinary(t *Table, threshold float64) {
	for i := range t.Rows {
		if t.Rows[i].ExportRCA >= threshold {
			t.Rows[i].XBinary = 1
		} else {
			t.Rows[i].XBinary = 0
		}
	}
}

// AddPeerRelativePresence derives each row's share of its country's exports
// and compares it with the mean share of the same product across countries.
// A country exporting nothing gets NaN shares.
func AddPeerRelativePresence(t *Table, eps float64) {
	totals := map[string]float64{}
	for _, r := range t.Rows {
		totals[r.Country] += float64(r.ExportValue)
	}

	type acc struct {
		sum float64
		n   int
	}
	peers := map[string]*acc{}
	for i := range t.Rows {
		r := &t.Rows[i]
		total := totals[r.Country]
		if total == 0 {
			r.Share = math.NaN()
		} else {
			r.Share = float64(r.ExportValue) / total
		}

		a, ok := peers[r.Product]
		if !ok {
			a = &acc{}
			peers[r.Product] = a
		}
		if !math.IsNaN(r.Share) {
			a.sum += r.Share
			a.n++
		}
	}

	for i := range t.Rows {
		r := &t.Rows[i]
		peer := math.NaN()
		if a := peers[r.Product]; a.n > 0 {
			peer = a.sum / float64(a.n)
		}
		r.RelPresence = r.Share / (peer + eps)
		r.AbsPresence = r.Share - peer
	}
}
