// Package scoring implements the deterministic resume/job-description match
// pipeline: tokenization, keyword extraction, four independent sub-scorers,
// aggregation and suggestion synthesis.
package scoring

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Fixed sub-score ceilings. They add up to 100.
const (
	MaxCoverageScore   = 55.0
	MaxStructureScore  = 20.0
	MaxLengthScore     = 15.0
	MaxSimilarityScore = 10.0

	pointsPerSection = 4.0
)

// Section names recognised by the structure scorer
const (
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
	SectionSummary    = "summary"
	SectionContact    = "contact"
)

// SectionSignal is one canonical resume section. The section counts as present
// when any of Terms occurs in the lower-cased resume text.
type SectionSignal struct {
	Name  string
	Terms []string
	Flag  string
}

// LengthBucket maps a word-count range onto a score. Max < 0 means unbounded.
type LengthBucket struct {
	Min   int
	Max   int
	Score float64
	Note  string
}

func (b LengthBucket) contains(wc int) bool {
	return wc >= b.Min && (b.Max < 0 || wc <= b.Max)
}

// Vocabulary is the frozen configuration shared by the tokenizer and the
// structure and length scorers. It has no exported mutable state; build one
// with NewVocabulary or DefaultVocabulary and pass it by pointer.
type Vocabulary struct {
	stopwords     map[string]struct{}
	sections      []SectionSignal
	buckets       []LengthBucket
	minKeywordLen int
}

var defaultStopwords = []string{
	"the", "a", "an", "and", "or", "of", "to", "in", "for", "on", "with", "at",
	"by", "from", "as", "is", "are", "was", "were", "this", "that", "it",
	"be", "will", "can", "your", "you", "we", "our", "they", "their", "but",
	"about",
}

var defaultSections = []SectionSignal{
	{Name: SectionExperience, Terms: []string{"experience", "work history"}, Flag: "Missing Work Experience section."},
	{Name: SectionEducation, Terms: []string{"education"}, Flag: "Missing Education section."},
	{Name: SectionSkills, Terms: []string{"skills"}, Flag: "Missing Skills section."},
	{Name: SectionSummary, Terms: []string{"summary", "objective"}, Flag: "Missing Summary/Profile section."},
	{Name: SectionContact, Terms: []string{"email", "phone", "contact"}, Flag: "Missing contact info."},
}

// Buckets are listed in evaluation priority order.
var defaultBuckets = []LengthBucket{
	{Min: 300, Max: 900, Score: 15},
	{Min: 200, Max: 299, Score: 9, Note: "Resume is short."},
	{Min: 901, Max: 1300, Score: 9, Note: "Resume is long."},
	{Min: 0, Max: 199, Score: 5, Note: "Resume is very short."},
	{Min: 1301, Max: -1, Score: 5, Note: "Resume is very long."},
}

const defaultMinKeywordLen = 4

// VocabularyOptions override parts of the default vocabulary. Zero values keep
// the default.
type VocabularyOptions struct {
	Stopwords      []string
	ExtraStopwords []string
	SectionTerms   map[string][]string
	Buckets        []LengthBucket
	MinKeywordLen  int
}

var defaultVocabulary = mustVocabulary(VocabularyOptions{})

// DefaultVocabulary returns the shared built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary
}

func mustVocabulary(opts VocabularyOptions) *Vocabulary {
	v, err := NewVocabulary(opts)
	if err != nil {
		panic(err)
	}
	return v
}

// NewVocabulary builds a frozen vocabulary from the defaults plus opts.
// All slices are copied, so later changes to opts are not observed.
func NewVocabulary(opts VocabularyOptions) (*Vocabulary, error) {
	words := defaultStopwords
	if len(opts.Stopwords) > 0 {
		words = opts.Stopwords
	}
	stop := make(map[string]struct{}, len(words)+len(opts.ExtraStopwords))
	for _, w := range append(slices.Clone(words), opts.ExtraStopwords...) {
		stop[w] = struct{}{}
	}

	sections := make([]SectionSignal, len(defaultSections))
	for i, s := range defaultSections {
		terms := s.Terms
		if override, ok := opts.SectionTerms[s.Name]; ok {
			if len(override) == 0 {
				return nil, fmt.Errorf("section %q needs at least one term", s.Name)
			}
			terms = make([]string, len(override))
			for j, term := range override {
				terms[j] = strings.ToLower(term)
			}
		}
		sections[i] = SectionSignal{Name: s.Name, Terms: slices.Clone(terms), Flag: s.Flag}
	}
	for name := range opts.SectionTerms {
		if !slices.ContainsFunc(defaultSections, func(s SectionSignal) bool { return s.Name == name }) {
			return nil, fmt.Errorf("unknown section %q", name)
		}
	}

	buckets := defaultBuckets
	if len(opts.Buckets) > 0 {
		if err := validateBuckets(opts.Buckets); err != nil {
			return nil, err
		}
		buckets = opts.Buckets
	}

	minLen := defaultMinKeywordLen
	if opts.MinKeywordLen > 0 {
		minLen = opts.MinKeywordLen
	}

	return &Vocabulary{
		stopwords:     stop,
		sections:      sections,
		buckets:       slices.Clone(buckets),
		minKeywordLen: minLen,
	}, nil
}

// validateBuckets checks that the buckets cover every word count from zero
// upward exactly once and never exceed the length ceiling.
func validateBuckets(buckets []LengthBucket) error {
	sorted := slices.Clone(buckets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	next := 0
	for i, b := range sorted {
		if b.Score < 0 || b.Score > MaxLengthScore {
			return fmt.Errorf("length bucket %d-%d: score %.1f outside 0..%.0f", b.Min, b.Max, b.Score, MaxLengthScore)
		}
		if b.Min != next {
			return fmt.Errorf("length buckets leave a gap or overlap at word count %d", next)
		}
		if b.Max < 0 {
			if i != len(sorted)-1 {
				return fmt.Errorf("only the last length bucket may be unbounded")
			}
			return nil
		}
		if b.Max < b.Min {
			return fmt.Errorf("length bucket %d-%d is inverted", b.Min, b.Max)
		}
		next = b.Max + 1
	}
	return fmt.Errorf("length buckets must end with an unbounded bucket")
}

// IsStopword reports whether token is filtered by the tokenizer.
func (v *Vocabulary) IsStopword(token string) bool {
	_, ok := v.stopwords[token]
	return ok
}

// Sections returns a copy of the section signals in evaluation order.
func (v *Vocabulary) Sections() []SectionSignal {
	out := make([]SectionSignal, len(v.sections))
	for i, s := range v.sections {
		out[i] = SectionSignal{Name: s.Name, Terms: slices.Clone(s.Terms), Flag: s.Flag}
	}
	return out
}

// Buckets returns a copy of the length buckets in priority order.
func (v *Vocabulary) Buckets() []LengthBucket {
	return slices.Clone(v.buckets)
}

// MinKeywordLen is the shortest token that counts as a keyword.
func (v *Vocabulary) MinKeywordLen() int {
	return v.minKeywordLen
}

// StopwordCount is the size of the stopword set.
func (v *Vocabulary) StopwordCount() int {
	return len(v.stopwords)
}
