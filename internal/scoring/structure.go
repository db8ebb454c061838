package scoring

import "strings"

// StructureResult holds the structure sub-score and a flag per absent section.
type StructureResult struct {
	Score float64
	Flags []string
}

// StructureScorer checks raw resume text for the canonical sections.
type StructureScorer struct {
	vocab *Vocabulary
}

// NewStructureScorer returns a scorer bound to vocab. A nil vocab uses the default.
func NewStructureScorer(vocab *Vocabulary) *StructureScorer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &StructureScorer{vocab: vocab}
}

// Score awards four points per present section and flags the rest.
func (s *StructureScorer) Score(resumeText string) StructureResult {
	lower := strings.ToLower(resumeText)

	var points float64
	flags := make([]string, 0)
	for _, section := range s.vocab.sections {
		if containsAny(lower, section.Terms) {
			points += pointsPerSection
		} else {
			flags = append(flags, section.Flag)
		}
	}

	return StructureResult{Score: round1(points), Flags: flags}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
