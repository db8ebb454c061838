package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the on-disk form of VocabularyOptions.
//
//	stopwords: [...]         # replaces the built-in list
//	extraStopwords: [...]    # added to it
//	sections:
//	  skills: ["skills", "technologies"]
//	lengthBuckets:
//	  - {min: 0, max: 249, score: 5, note: "Resume is very short."}
//	minKeywordLength: 5
type Profile struct {
	Stopwords        []string            `yaml:"stopwords"`
	ExtraStopwords   []string            `yaml:"extraStopwords"`
	Sections         map[string][]string `yaml:"sections"`
	LengthBuckets    []ProfileBucket     `yaml:"lengthBuckets"`
	MinKeywordLength int                 `yaml:"minKeywordLength"`
}

// ProfileBucket is one length bucket; omit max for an unbounded bucket.
type ProfileBucket struct {
	Min   int     `yaml:"min"`
	Max   *int    `yaml:"max"`
	Score float64 `yaml:"score"`
	Note  string  `yaml:"note"`
}

// ParseProfile decodes a YAML profile and builds the frozen vocabulary.
func ParseProfile(data []byte) (*Vocabulary, error) {
	var prof Profile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("decode scoring profile: %w", err)
	}

	opts := VocabularyOptions{
		Stopwords:      prof.Stopwords,
		ExtraStopwords: prof.ExtraStopwords,
		SectionTerms:   prof.Sections,
		MinKeywordLen:  prof.MinKeywordLength,
	}
	for _, b := range prof.LengthBuckets {
		bucket := LengthBucket{Min: b.Min, Max: -1, Score: b.Score, Note: b.Note}
		if b.Max != nil {
			bucket.Max = *b.Max
		}
		opts.Buckets = append(opts.Buckets, bucket)
	}

	vocab, err := NewVocabulary(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring profile: %w", err)
	}
	return vocab, nil
}

// LoadProfile reads a profile file. An empty path returns the default vocabulary.
func LoadProfile(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring profile %s: %w", path, err)
	}
	return ParseProfile(data)
}
