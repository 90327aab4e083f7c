package complexity

// DefaultSweepThresholds are the RCA cutoffs probed by SweepThresholds.
var DefaultSweepThresholds = []float64{0.75, 1.0, 1.25}

type SweepResult struct {
	Threshold float64
	// Candidates counts candidate products per country.
	Candidates map[string]int
}

// SweepThresholds reruns specialization and the candidate filter on a copy of
// the table for each threshold. The table itself is not modified.
func SweepThresholds(t *Table, thresholds []float64) []SweepResult {
	results := make([]SweepResult, 0, len(thresholds))
	for _, threshold := range thresholds {
		trial := t.Clone()
		AddRCABinary(trial, threshold)
		MarkCandidates(trial, threshold)

		counts := map[string]int{}
		for _, r := range trial.Rows {
			if r.IsCandidate {
				counts[r.Country]++
			}
		}
		results = append(results, SweepResult{Threshold: threshold, Candidates: counts})
	}
	return results
}
