package types

// MatchInput carries the candidate (resume) and target (job description) documents
type MatchInput struct {
	ResumeText     string `json:"resumeText" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

// ScoreBreakdown holds the four bounded sub-scores and their clamped sum
type ScoreBreakdown struct {
	KeywordCoverage   float64 `json:"keywordCoverage"`
	Structure         float64 `json:"structure"`
	Length            float64 `json:"length"`
	OverallSimilarity float64 `json:"overallSimilarity"`
	Total             float64 `json:"total"`
}

// AnalysisReport is the diagnostic detail behind a ScoreBreakdown
type AnalysisReport struct {
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
	StructureFlags  []string `json:"structureFlags"`
	LengthNote      *string  `json:"lengthNote"`
	WordCount       int      `json:"wordCount"`
}

// ScoreResult is the full output of one scoring call
type ScoreResult struct {
	Score       float64        `json:"score"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Suggestions []string       `json:"suggestions"`
	Analysis    AnalysisReport `json:"analysis"`
}

// OptimizationResult is the output of the rewrite orchestration.
// ExpectedScoreBoost is an estimate, not a guarantee. RescoredTotal is only
// set when the rewritten text was run back through the scoring pipeline.
type OptimizationResult struct {
	OptimizedResume    string   `json:"optimizedResume"`
	ChangesSummary     []string `json:"changesSummary"`
	ExpectedScoreBoost float64  `json:"expectedScoreBoost"`
	RescoredTotal      *float64 `json:"rescoredTotal,omitempty"`
}

// GapAnalysisInput is the request for a generator-backed gap analysis
type GapAnalysisInput struct {
	ResumeText string `json:"resumeText" validate:"required"`
	JDText     string `json:"jdText" validate:"required"`
}

// GapScores are 0-100 scores reported by the gap analysis
type GapScores struct {
	Total              float64 `json:"total"`
	KeywordCoverage    float64 `json:"keyword_coverage"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
	SeniorityMatch     float64 `json:"seniority_match"`
}

// WeakMatch pairs a resume term with the wording the job description prefers
type WeakMatch struct {
	ResumeTerm   string `json:"resume_term"`
	JDPreference string `json:"jd_preference"`
	Reason       string `json:"reason"`
}

// Gaps lists what the resume lacks relative to the job description
type Gaps struct {
	MissingKeywords []string    `json:"missing_keywords"`
	WeakMatches     []WeakMatch `json:"weak_matches"`
}

// Seniority status values
const (
	SeniorityMatch          = "Match"
	SeniorityUnderqualified = "Underqualified"
	SeniorityOverqualified  = "Overqualified"
)

// SeniorityAnalysis compares the level the job asks for with the resume's level
type SeniorityAnalysis struct {
	JDLevel     string `json:"jd_level"`
	ResumeLevel string `json:"resume_level"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

// GapAnalysis is the output of the gap analysis operation
type GapAnalysis struct {
	Scores            GapScores         `json:"scores"`
	Gaps              Gaps              `json:"gaps"`
	OverRepresented   []string          `json:"over_represented"`
	SeniorityAnalysis SeniorityAnalysis `json:"seniority_analysis"`
}

// RephraseInput asks for one resume section to be reworded toward a job description
type RephraseInput struct {
	Text        string `json:"text" validate:"required"`
	JDText      string `json:"jdText" validate:"required"`
	Instruction string `json:"instruction,omitempty"`
}

// RephraseResult is the reworded section
type RephraseResult struct {
	OptimizedText string `json:"optimizedText"`
}

// ParseResult is the plain text extracted from an uploaded document
type ParseResult struct {
	Text string `json:"text"`
}
