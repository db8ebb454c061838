package formatters

import (
	"fmt"
	"strings"

	"atsmatch/internal/scoring"
	"atsmatch/internal/types"
)

// ScoreMarkdownFormatter renders a score report as markdown
type ScoreMarkdownFormatter struct{}

func (f *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreResult)
	if !ok {
		return "", fmt.Errorf("expected ScoreResult, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# ATS Score: %.1f/100\n\n", result.Score)

	out.WriteString("| Component | Score | Max |\n")
	out.WriteString("|---|---:|---:|\n")
	fmt.Fprintf(&out, "| Keyword coverage | %.1f | %.0f |\n", result.Breakdown.KeywordCoverage, scoring.MaxCoverageScore)
	fmt.Fprintf(&out, "| Structure | %.1f | %.0f |\n", result.Breakdown.Structure, scoring.MaxStructureScore)
	fmt.Fprintf(&out, "| Length | %.1f | %.0f |\n", result.Breakdown.Length, scoring.MaxLengthScore)
	fmt.Fprintf(&out, "| Overall similarity | %.1f | %.0f |\n\n", result.Breakdown.OverallSimilarity, scoring.MaxSimilarityScore)

	writeMarkdownList(&out, "Matched Keywords", result.Analysis.MatchedKeywords)
	writeMarkdownList(&out, "Missing Keywords", result.Analysis.MissingKeywords)
	writeMarkdownList(&out, "Structure", result.Analysis.StructureFlags)

	fmt.Fprintf(&out, "**Word count:** %d\n", result.Analysis.WordCount)
	if result.Analysis.LengthNote != nil {
		fmt.Fprintf(&out, "\n> %s\n", *result.Analysis.LengthNote)
	}
	out.WriteString("\n")

	writeMarkdownList(&out, "Suggestions", result.Suggestions)
	return out.String(), nil
}

func (f *ScoreMarkdownFormatter) SupportedType() string {
	return TypeScore
}

// OptimizationMarkdownFormatter renders an optimization result as markdown
type OptimizationMarkdownFormatter struct{}

func (f *OptimizationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.OptimizationResult)
	if !ok {
		return "", fmt.Errorf("expected OptimizationResult, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Optimized Resume\n\n")
	out.WriteString(result.OptimizedResume)
	out.WriteString("\n\n")

	writeMarkdownList(&out, "Changes", result.ChangesSummary)
	fmt.Fprintf(&out, "**Expected score boost:** +%.0f\n", result.ExpectedScoreBoost)
	if result.RescoredTotal != nil {
		fmt.Fprintf(&out, "\n**Rescored total:** %.1f/100\n", *result.RescoredTotal)
	}
	return out.String(), nil
}

func (f *OptimizationMarkdownFormatter) SupportedType() string {
	return TypeOptimization
}

// GapMarkdownFormatter renders a gap analysis as markdown
type GapMarkdownFormatter struct{}

func (f *GapMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GapAnalysis)
	if !ok {
		return "", fmt.Errorf("expected GapAnalysis, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# Gap Analysis: %.1f/100\n\n", result.Scores.Total)
	out.WriteString("| Dimension | Score |\n")
	out.WriteString("|---|---:|\n")
	fmt.Fprintf(&out, "| Keyword coverage | %.1f |\n", result.Scores.KeywordCoverage)
	fmt.Fprintf(&out, "| Semantic similarity | %.1f |\n", result.Scores.SemanticSimilarity)
	fmt.Fprintf(&out, "| Seniority match | %.1f |\n\n", result.Scores.SeniorityMatch)

	writeMarkdownList(&out, "Missing Keywords", result.Gaps.MissingKeywords)

	if len(result.Gaps.WeakMatches) > 0 {
		out.WriteString("## Weak Matches\n\n")
		out.WriteString("| Resume term | Job prefers | Reason |\n")
		out.WriteString("|---|---|---|\n")
		for _, wm := range result.Gaps.WeakMatches {
			fmt.Fprintf(&out, "| %s | %s | %s |\n",
				escapeCell(wm.ResumeTerm), escapeCell(wm.JDPreference), escapeCell(wm.Reason))
		}
		out.WriteString("\n")
	}

	writeMarkdownList(&out, "Over-represented", result.OverRepresented)

	sa := result.SeniorityAnalysis
	out.WriteString("## Seniority\n\n")
	fmt.Fprintf(&out, "**%s** (job: %s, resume: %s)\n", sa.Status, sa.JDLevel, sa.ResumeLevel)
	if sa.Reason != "" {
		fmt.Fprintf(&out, "\n%s\n", sa.Reason)
	}
	return out.String(), nil
}

func (f *GapMarkdownFormatter) SupportedType() string {
	return TypeGapAnalysis
}

func writeMarkdownList(out *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "- %s\n", item)
	}
	out.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
