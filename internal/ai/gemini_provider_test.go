package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

var testLogger = errors.NewLogger(slog.LevelDebug)

func testOperationConfig() *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		APIKey:           "test-key",
		Timeout:          timePtr(5 * time.Second),
		MaxRetries:       intPtr(2),
		Temperature:      float32Ptr(0.2),
		UseSystemPrompts: boolPtr(true),
	}
}

type recordedCall struct {
	model  string
	prompt string
	cfg    *genai.GenerateContentConfig
}

// fakeGemini replays scripted replies and records each request
type fakeGemini struct {
	mu      sync.Mutex
	calls   []recordedCall
	replies []func(ctx context.Context) (*genai.GenerateContentResponse, error)
}

func (f *fakeGemini) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	idx := len(f.calls)
	f.calls = append(f.calls, recordedCall{model: model, prompt: contents[0].Parts[0].Text, cfg: cfg})
	reply := f.replies[min(idx, len(f.replies)-1)]
	f.mu.Unlock()
	return reply(ctx)
}

func textReply(text string) func(context.Context) (*genai.GenerateContentResponse, error) {
	return func(context.Context) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     120,
				CandidatesTokenCount: 30,
				TotalTokenCount:      150,
			},
		}, nil
	}
}

func errReply(err error) func(context.Context) (*genai.GenerateContentResponse, error) {
	return func(context.Context) (*genai.GenerateContentResponse, error) { return nil, err }
}

func newTestProvider(t *testing.T, cfg *config.OperationAIConfig, op string, fake *fakeGemini) *GeminiProvider {
	t.Helper()
	p, err := newGeminiProvider(cfg, op, fake.generate, func(context.Context, string, *genai.GetModelConfig) (*genai.Model, error) {
		return &genai.Model{DisplayName: "Test Model", Version: "001"}, nil
	}, testLogger)
	require.NoError(t, err)
	p.retryBaseDelay = time.Millisecond
	return p
}

const gapReply = "```json\n" + `{
  "scores": {"total": 12, "keyword_coverage": 80, "semantic_similarity": 60, "seniority_match": 50},
  "gaps": {"missing_keywords": ["kubernetes"], "weak_matches": [{"resume_term": "led", "jd_preference": "managed", "reason": "JD wording"}]},
  "seniority_analysis": {"jd_level": "Senior", "resume_level": "Mid", "status": "Underqualified", "reason": "fewer years"}
}` + "\n```"

func TestAnalyzeGap(t *testing.T) {
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){textReply(gapReply)}}
	p := newTestProvider(t, testOperationConfig(), config.OperationAnalyze, fake)

	resume := strings.Repeat("a", maxAnalysisInputChars+50)
	analysis, usage, err := p.AnalyzeGap(context.Background(), types.GapAnalysisInput{ResumeText: resume, JDText: "Go engineer"})
	require.NoError(t, err)

	assert.InDelta(t, 68.0, analysis.Scores.Total, 1e-9, "total is recomputed from the weighted sub-scores")
	assert.Equal(t, []string{"kubernetes"}, analysis.Gaps.MissingKeywords)
	assert.Len(t, analysis.Gaps.WeakMatches, 1)
	assert.NotNil(t, analysis.OverRepresented)
	assert.Empty(t, analysis.OverRepresented)
	assert.Equal(t, types.SeniorityUnderqualified, analysis.SeniorityAnalysis.Status)

	require.NotNil(t, usage)
	assert.Equal(t, int64(150), usage.TotalTokens)

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, "test-model", call.model)
	assert.Equal(t, "application/json", call.cfg.ResponseMIMEType)
	assert.NotNil(t, call.cfg.ResponseSchema)
	require.NotNil(t, call.cfg.Temperature)
	assert.InDelta(t, 0.2, *call.cfg.Temperature, 1e-6)
	assert.NotNil(t, call.cfg.SystemInstruction)
	assert.Contains(t, call.prompt, strings.Repeat("a", maxAnalysisInputChars))
	assert.NotContains(t, call.prompt, strings.Repeat("a", maxAnalysisInputChars+1))
}

func TestAnalyzeGapRejectsMalformedReply(t *testing.T) {
	replies := []string{
		"not json at all",
		`{"scores": {"keyword_coverage": 140, "semantic_similarity": 1, "seniority_match": 1}, "gaps": {}, "seniority_analysis": {"status": "Match"}}`,
		`{"scores": {"keyword_coverage": 40, "semantic_similarity": 1, "seniority_match": 1}, "gaps": {}, "seniority_analysis": {"status": "Maybe"}}`,
	}
	for _, reply := range replies {
		fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){textReply(reply)}}
		p := newTestProvider(t, testOperationConfig(), config.OperationAnalyze, fake)

		_, usage, err := p.AnalyzeGap(context.Background(), types.GapAnalysisInput{ResumeText: "r", JDText: "j"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok, reply)
		assert.Equal(t, errors.ErrCodeAIResponseInvalid, appErr.Code)
		assert.Equal(t, "Failed to parse analysis result", appErr.Message)
		assert.NotNil(t, usage, "tokens were spent even though the reply was rejected")
	}
}

func TestRephrase(t *testing.T) {
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){textReply("  \"Shipped a Go service to 1M users.\"\n")}}
	p := newTestProvider(t, testOperationConfig(), config.OperationRephrase, fake)

	jd := strings.Repeat("j", maxRephraseJDChars+10)
	result, _, err := p.Rephrase(context.Background(), types.RephraseInput{Text: "Made a service", JDText: jd})
	require.NoError(t, err)
	assert.Equal(t, "Shipped a Go service to 1M users.", result.OptimizedText)

	prompt := fake.calls[0].prompt
	assert.Contains(t, prompt, DefaultRephraseInstruction)
	assert.Contains(t, prompt, "Made a service")
	assert.NotContains(t, prompt, strings.Repeat("j", maxRephraseJDChars+1))

	_, _, err = p.Rephrase(context.Background(), types.RephraseInput{Text: "x", JDText: "y", Instruction: "Make it shorter"})
	require.NoError(t, err)
	assert.Contains(t, fake.calls[1].prompt, "Make it shorter")
}

func TestGenerateTextRetriesTransientErrors(t *testing.T) {
	unavailable := &googleapi.Error{Code: 503, Message: "unavailable"}
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){
		errReply(unavailable), errReply(unavailable), textReply("done"),
	}}
	p := newTestProvider(t, testOperationConfig(), config.OperationOptimize, fake)

	text, usage, err := p.GenerateText(context.Background(), "rewrite this")
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.NotNil(t, usage)
	assert.Len(t, fake.calls, 3)
	assert.Equal(t, "rewrite this", fake.calls[0].prompt)
	assert.Nil(t, fake.calls[0].cfg.ResponseSchema)
}

func TestGenerateTextStopsOnPermanentError(t *testing.T) {
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){
		errReply(&googleapi.Error{Code: 400, Message: "bad request"}),
	}}
	p := newTestProvider(t, testOperationConfig(), config.OperationOptimize, fake)

	_, _, err := p.GenerateText(context.Background(), "prompt")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAIServiceFailed, appErr.Code)
	assert.Len(t, fake.calls, 1)
}

func TestGenerateTextTimeout(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Timeout = timePtr(20 * time.Millisecond)
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){
		func(ctx context.Context) (*genai.GenerateContentResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}}
	p := newTestProvider(t, cfg, config.OperationOptimize, fake)

	_, _, err := p.GenerateText(context.Background(), "prompt")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAITimeout, appErr.Code)
	assert.Len(t, fake.calls, 1)
}

func TestSystemPromptAndTemperatureToggles(t *testing.T) {
	cfg := testOperationConfig()
	cfg.UseSystemPrompts = boolPtr(false)
	cfg.Temperature = float32Ptr(0)
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){textReply("ok")}}
	p := newTestProvider(t, cfg, config.OperationRephrase, fake)

	_, _, err := p.Rephrase(context.Background(), types.RephraseInput{Text: "t", JDText: "j"})
	require.NoError(t, err)
	assert.Nil(t, fake.calls[0].cfg.SystemInstruction)
	assert.Nil(t, fake.calls[0].cfg.Temperature)
}

func TestCustomUserPromptAppliesToOwnOperation(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Prompts.User = "CUSTOM JD=%s TEXT=%s DO=%s"
	fake := &fakeGemini{replies: []func(context.Context) (*genai.GenerateContentResponse, error){textReply("ok"), textReply(gapReply)}}
	p := newTestProvider(t, cfg, config.OperationRephrase, fake)

	_, _, err := p.Rephrase(context.Background(), types.RephraseInput{Text: "t", JDText: "j"})
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM JD=j TEXT=t DO="+DefaultRephraseInstruction, fake.calls[0].prompt)

	_, _, err = p.AnalyzeGap(context.Background(), types.GapAnalysisInput{ResumeText: "r", JDText: "j"})
	require.NoError(t, err)
	assert.NotContains(t, fake.calls[1].prompt, "CUSTOM")
}

func TestNewProviderRejectsBadTemplate(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Prompts.User = "only one %s"
	_, err := newGeminiProvider(cfg, config.OperationAnalyze, nil, nil, testLogger)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidConfig, appErr.Code)
}

func TestNewGeminiProviderRequiresAPIKey(t *testing.T) {
	cfg := testOperationConfig()
	cfg.APIKey = ""
	_, err := NewGeminiProvider(cfg, config.OperationOptimize, testLogger)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeMissingAPIKey, appErr.Code)
}

func TestGetModelInfo(t *testing.T) {
	p := newTestProvider(t, testOperationConfig(), config.OperationAnalyze, &fakeGemini{})
	info := p.GetModelInfo(context.Background())
	assert.True(t, info.Available)
	assert.Equal(t, "Test Model", info.DisplayName)
	assert.Equal(t, "001", info.Version)

	p.getModel = func(context.Context, string, *genai.GetModelConfig) (*genai.Model, error) {
		return nil, fmt.Errorf("model not found")
	}
	info = p.GetModelInfo(context.Background())
	assert.False(t, info.Available)
	assert.Contains(t, info.Error, "model not found")
	assert.Equal(t, "test-model", info.Name)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", fmt.Errorf("boom"), false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", &googleapi.Error{Code: 500}, true},
		{"gateway timeout", fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 504}), true},
		{"bad request", &googleapi.Error{Code: 400}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffIsCapped(t *testing.T) {
	p := &GeminiProvider{retryBaseDelay: time.Second}
	assert.GreaterOrEqual(t, p.backoff(1), time.Second)
	assert.Less(t, p.backoff(1), 1100*time.Millisecond+time.Millisecond)
	assert.Equal(t, maxRetryBackoff, p.backoff(10))
}

func TestCleanRephrased(t *testing.T) {
	assert.Equal(t, "plain", cleanRephrased("  plain \n"))
	assert.Equal(t, "quoted", cleanRephrased(`"quoted"`))
	assert.Equal(t, `"`, cleanRephrased(`"`))
	assert.Equal(t, `say "hi" now`, cleanRephrased(`say "hi" now`))
}
