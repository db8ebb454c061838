package scoring

import "strings"

const (
	coverageSuggestionThreshold   = 40.0
	similaritySuggestionThreshold = 5.0
	maxListedMissingKeywords      = 10

	alignmentSuggestion = "Increase alignment with job responsibilities by reflecting similar terminology."
	fallbackSuggestion  = "This resume is strong. Add measurable achievements for extra polish."
)

// SuggestionInput is the diagnostic detail the suggestion builder reads.
type SuggestionInput struct {
	CoverageScore   float64
	MissingKeywords []string
	StructureFlags  []string
	LengthNote      *string
	SimilarityScore float64
}

// BuildSuggestions applies every matching rule in a fixed order: coverage,
// structure, length, similarity. The result is never empty.
func BuildSuggestions(in SuggestionInput) []string {
	suggestions := make([]string, 0, len(in.StructureFlags)+3)

	if in.CoverageScore < coverageSuggestionThreshold && len(in.MissingKeywords) > 0 {
		listed := in.MissingKeywords[:min(len(in.MissingKeywords), maxListedMissingKeywords)]
		suggestions = append(suggestions, "Missing important keywords: "+strings.Join(listed, ", "))
	}

	suggestions = append(suggestions, in.StructureFlags...)

	if in.LengthNote != nil {
		suggestions = append(suggestions, *in.LengthNote)
	}

	if in.SimilarityScore < similaritySuggestionThreshold {
		suggestions = append(suggestions, alignmentSuggestion)
	}

	if len(suggestions) == 0 {
		return []string{fallbackSuggestion}
	}
	return suggestions
}
