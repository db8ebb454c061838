package scoring

// SimilarityResult is the Jaccard-style overlap between keywords and the
// candidate vocabulary.
type SimilarityResult struct {
	Score        float64
	Intersection int
	Union        int
}

// ScoreSimilarity computes |keywords ∩ candidate| / |keywords ∪ candidate|.
// The union spans the full candidate vocabulary, not only long tokens, so
// resumes with much unrelated vocabulary score lower.
func ScoreSimilarity(keywords []string, candidate TokenSet) SimilarityResult {
	union := len(candidate)
	intersection := 0
	for _, kw := range keywords {
		if candidate.Contains(kw) {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return SimilarityResult{}
	}
	similarity := float64(intersection) / float64(union)
	return SimilarityResult{
		Score:        round1(similarity * MaxSimilarityScore),
		Intersection: intersection,
		Union:        union,
	}
}
