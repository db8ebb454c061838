package formatters

import (
	"fmt"
	"strings"

	"atsmatch/internal/scoring"
	"atsmatch/internal/types"
)

// ScoreTextFormatter renders a score report for the terminal
type ScoreTextFormatter struct{}

func (f *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreResult)
	if !ok {
		return "", fmt.Errorf("expected ScoreResult, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== ATS SCORE: %.1f/100 ===\n\n", result.Score)

	out.WriteString("Breakdown:\n")
	fmt.Fprintf(&out, "  Keyword coverage:   %5.1f / %.0f\n", result.Breakdown.KeywordCoverage, scoring.MaxCoverageScore)
	fmt.Fprintf(&out, "  Structure:          %5.1f / %.0f\n", result.Breakdown.Structure, scoring.MaxStructureScore)
	fmt.Fprintf(&out, "  Length:             %5.1f / %.0f\n", result.Breakdown.Length, scoring.MaxLengthScore)
	fmt.Fprintf(&out, "  Overall similarity: %5.1f / %.0f\n\n", result.Breakdown.OverallSimilarity, scoring.MaxSimilarityScore)

	writeList(&out, "Matched keywords", result.Analysis.MatchedKeywords)
	writeList(&out, "Missing keywords", result.Analysis.MissingKeywords)
	writeList(&out, "Structure", result.Analysis.StructureFlags)

	fmt.Fprintf(&out, "Word count: %d\n", result.Analysis.WordCount)
	if result.Analysis.LengthNote != nil {
		fmt.Fprintf(&out, "Length note: %s\n", *result.Analysis.LengthNote)
	}
	out.WriteString("\n")

	writeList(&out, "Suggestions", result.Suggestions)
	return out.String(), nil
}

func (f *ScoreTextFormatter) SupportedType() string {
	return TypeScore
}

// OptimizationTextFormatter renders the rewritten resume and change summary
type OptimizationTextFormatter struct{}

func (f *OptimizationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.OptimizationResult)
	if !ok {
		return "", fmt.Errorf("expected OptimizationResult, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== OPTIMIZED RESUME ===\n\n")
	out.WriteString(result.OptimizedResume)
	out.WriteString("\n\n")

	writeList(&out, "Changes", result.ChangesSummary)
	fmt.Fprintf(&out, "Expected score boost: +%.0f\n", result.ExpectedScoreBoost)
	if result.RescoredTotal != nil {
		fmt.Fprintf(&out, "Rescored total: %.1f/100\n", *result.RescoredTotal)
	}
	return out.String(), nil
}

func (f *OptimizationTextFormatter) SupportedType() string {
	return TypeOptimization
}

// GapTextFormatter renders a gap analysis for the terminal
type GapTextFormatter struct{}

func (f *GapTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GapAnalysis)
	if !ok {
		return "", fmt.Errorf("expected GapAnalysis, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== GAP ANALYSIS: %.1f/100 ===\n\n", result.Scores.Total)
	fmt.Fprintf(&out, "  Keyword coverage:    %5.1f\n", result.Scores.KeywordCoverage)
	fmt.Fprintf(&out, "  Semantic similarity: %5.1f\n", result.Scores.SemanticSimilarity)
	fmt.Fprintf(&out, "  Seniority match:     %5.1f\n\n", result.Scores.SeniorityMatch)

	writeList(&out, "Missing keywords", result.Gaps.MissingKeywords)

	if len(result.Gaps.WeakMatches) > 0 {
		out.WriteString("Weak matches:\n")
		for _, wm := range result.Gaps.WeakMatches {
			fmt.Fprintf(&out, "  - %q -> %q: %s\n", wm.ResumeTerm, wm.JDPreference, wm.Reason)
		}
		out.WriteString("\n")
	}

	writeList(&out, "Over-represented", result.OverRepresented)

	sa := result.SeniorityAnalysis
	fmt.Fprintf(&out, "Seniority: %s (job: %s, resume: %s)\n", sa.Status, sa.JDLevel, sa.ResumeLevel)
	if sa.Reason != "" {
		fmt.Fprintf(&out, "  %s\n", sa.Reason)
	}
	return out.String(), nil
}

func (f *GapTextFormatter) SupportedType() string {
	return TypeGapAnalysis
}

func writeList(out *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
	out.WriteString("\n")
}
