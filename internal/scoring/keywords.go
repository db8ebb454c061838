package scoring

// ExtractKeywords returns the unique tokens of at least minLen bytes in
// first-seen order. Tokens are ASCII after normalization, so byte length is
// character length.
func ExtractKeywords(tokens TokenSequence, minLen int) []string {
	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0)
	for _, tok := range tokens {
		if len(tok) < minLen {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}
