package scoring

// LengthResult is the length sub-score and its advisory note, if any.
type LengthResult struct {
	Score float64
	Note  *string
}

// ScoreLength maps a word count onto the first matching bucket.
func (v *Vocabulary) ScoreLength(wordCount int) LengthResult {
	for _, b := range v.buckets {
		if !b.contains(wordCount) {
			continue
		}
		res := LengthResult{Score: b.Score}
		if b.Note != "" {
			note := b.Note
			res.Note = &note
		}
		return res
	}
	// Unreachable for validated buckets; negative counts never occur.
	return LengthResult{}
}
