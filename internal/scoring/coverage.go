package scoring

import "math"

// CoverageResult partitions the keywords into matched and missing, both in
// keyword order.
type CoverageResult struct {
	Score   float64
	Matched []string
	Missing []string
}

// ScoreCoverage scores the fraction of keywords present in candidate.
// No keywords scores 0.
func ScoreCoverage(keywords []string, candidate TokenSet) CoverageResult {
	matched := make([]string, 0, len(keywords))
	missing := make([]string, 0)
	for _, kw := range keywords {
		if candidate.Contains(kw) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	ratio := float64(len(matched)) / float64(max(len(keywords), 1))
	return CoverageResult{
		Score:   round1(ratio * MaxCoverageScore),
		Matched: matched,
		Missing: missing,
	}
}

// round1 rounds to one decimal place
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
