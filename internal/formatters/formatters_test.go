package formatters

import (
	"encoding/json"
	"testing"

	"atsmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScore() types.ScoreResult {
	note := "Resume is a bit short."
	return types.ScoreResult{
		Score: 63.5,
		Breakdown: types.ScoreBreakdown{
			KeywordCoverage:   33,
			Structure:         15,
			Length:            10,
			OverallSimilarity: 5.5,
			Total:             63.5,
		},
		Suggestions: []string{"Add a Projects section"},
		Analysis: types.AnalysisReport{
			MatchedKeywords: []string{"golang", "kubernetes"},
			MissingKeywords: []string{"terraform"},
			StructureFlags:  []string{"Has Experience section"},
			LengthNote:      &note,
			WordCount:       240,
		},
	}
}

func sampleGap() types.GapAnalysis {
	return types.GapAnalysis{
		Scores: types.GapScores{Total: 68, KeywordCoverage: 70, SemanticSimilarity: 60, SeniorityMatch: 75},
		Gaps: types.Gaps{
			MissingKeywords: []string{"terraform"},
			WeakMatches:     []types.WeakMatch{{ResumeTerm: "k8s", JDPreference: "Kubernetes", Reason: "spell it out | use full name"}},
		},
		OverRepresented: []string{},
		SeniorityAnalysis: types.SeniorityAnalysis{
			JDLevel: "Senior", ResumeLevel: "Mid", Status: types.SeniorityUnderqualified, Reason: "Four years vs six required",
		},
	}
}

func TestJSONFormatterHandlesAnyType(t *testing.T) {
	out, err := GlobalRegistry.Format(sampleScore(), "json")
	require.NoError(t, err)

	var decoded types.ScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 63.5, decoded.Score)

	out, err = GlobalRegistry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}

func TestScoreFormatters(t *testing.T) {
	text, err := GlobalRegistry.Format(sampleScore(), "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== ATS SCORE: 63.5/100 ===")
	assert.Contains(t, text, "Keyword coverage:    33.0 / 55")
	assert.Contains(t, text, "  - terraform")
	assert.Contains(t, text, "Length note: Resume is a bit short.")

	md, err := GlobalRegistry.Format(sampleScore(), "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "# ATS Score: 63.5/100")
	assert.Contains(t, md, "| Overall similarity | 5.5 | 10 |")
	assert.Contains(t, md, "## Suggestions\n\n- Add a Projects section")
}

func TestOptimizationFormattersAcceptPointer(t *testing.T) {
	rescored := 81.0
	result := &types.OptimizationResult{
		OptimizedResume:    "Jane Doe\nSenior Go engineer",
		ChangesSummary:     []string{"Added Terraform"},
		ExpectedScoreBoost: 11,
		RescoredTotal:      &rescored,
	}

	text, err := GlobalRegistry.Format(result, "text")
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Go engineer")
	assert.Contains(t, text, "Expected score boost: +11")
	assert.Contains(t, text, "Rescored total: 81.0/100")

	md, err := GlobalRegistry.Format(result, "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, "## Changes\n\n- Added Terraform")
}

func TestGapFormatters(t *testing.T) {
	text, err := GlobalRegistry.Format(sampleGap(), "text")
	require.NoError(t, err)
	assert.Contains(t, text, "=== GAP ANALYSIS: 68.0/100 ===")
	assert.Contains(t, text, `"k8s" -> "Kubernetes"`)
	assert.Contains(t, text, "Seniority: Underqualified (job: Senior, resume: Mid)")
	assert.NotContains(t, text, "Over-represented")

	md, err := GlobalRegistry.Format(sampleGap(), "markdown")
	require.NoError(t, err)
	assert.Contains(t, md, `spell it out \| use full name`)
	assert.Contains(t, md, "**Underqualified**")
}

func TestPlainTextResults(t *testing.T) {
	out, err := GlobalRegistry.Format(types.RephraseResult{OptimizedText: "Led a team of 5"}, "text")
	require.NoError(t, err)
	assert.Equal(t, "Led a team of 5\n", out)

	out, err = GlobalRegistry.Format(&types.ParseResult{Text: "Jane Doe"}, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n", out)
}

func TestRegistryErrors(t *testing.T) {
	_, err := GlobalRegistry.Format(sampleScore(), "xml")
	assert.ErrorContains(t, err, "no formatter found for format 'xml'")

	_, err = GlobalRegistry.Format(map[string]int{}, "text")
	assert.ErrorContains(t, err, "type 'any'")

	assert.Equal(t, []string{"json", "markdown", "text"}, GlobalRegistry.GetSupportedFormats())
	assert.True(t, GlobalRegistry.Supports("markdown"))
	assert.False(t, GlobalRegistry.Supports("yaml"))
}
