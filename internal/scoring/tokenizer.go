package scoring

import (
	"regexp"
	"strings"
)

// Everything except lower-case letters, digits, '+' and '#' separates tokens.
var separatorPattern = regexp.MustCompile(`[^a-z0-9+#]+`)

// TokenSequence is the ordered token stream of one document.
type TokenSequence []string

// TokenSet is the set of unique tokens of a document.
type TokenSet map[string]struct{}

// Set collapses the sequence into a TokenSet.
func (s TokenSequence) Set() TokenSet {
	set := make(TokenSet, len(s))
	for _, tok := range s {
		set[tok] = struct{}{}
	}
	return set
}

// Contains reports whether tok is in the set.
func (s TokenSet) Contains(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Tokenizer normalizes raw text into tokens, dropping stopwords.
type Tokenizer struct {
	vocab *Vocabulary
}

// NewTokenizer returns a tokenizer bound to vocab. A nil vocab uses the default.
func NewTokenizer(vocab *Vocabulary) *Tokenizer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Tokenizer{vocab: vocab}
}

// Tokenize lower-cases text, splits on separator runs and removes stopwords.
// Empty input yields an empty, non-nil sequence.
func (t *Tokenizer) Tokenize(text string) TokenSequence {
	normalized := separatorPattern.ReplaceAllString(strings.ToLower(text), " ")

	fields := strings.Fields(normalized)
	tokens := make(TokenSequence, 0, len(fields))
	for _, f := range fields {
		if t.vocab.IsStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
