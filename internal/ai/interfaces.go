package ai

import (
	"context"

	"atsmatch/internal/types"
)

// AIProvider is a generator backend. Every call reports token usage; callers
// may ignore it.
type AIProvider interface {
	GenerateText(ctx context.Context, prompt string) (string, *TokenUsage, error)
	AnalyzeGap(ctx context.Context, input types.GapAnalysisInput) (types.GapAnalysis, *TokenUsage, error)
	Rephrase(ctx context.Context, input types.RephraseInput) (types.RephraseResult, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// UsageRecorder receives token counts for successful generator calls
type UsageRecorder interface {
	RecordTokenUsage(ctx context.Context, operation string, input, output, total int64)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
