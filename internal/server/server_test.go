package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	appErrors "atsmatch/internal/errors"
	"atsmatch/internal/observability"
	"atsmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ai.UsageRecorder = (*observability.ObservabilityManager)(nil)

var testLogger = appErrors.NewLoggerTo(io.Discard, slog.LevelError)

type fakeScorer struct{ score float64 }

func (f fakeScorer) Score(resumeText, jobDescription string) types.ScoreResult {
	return types.ScoreResult{
		Score:       f.score,
		Breakdown:   types.ScoreBreakdown{Total: f.score},
		Suggestions: []string{"Add more keywords"},
	}
}

type fakeOptimizer struct {
	gotScore types.ScoreResult
	err      error
}

func (f *fakeOptimizer) OptimizeScored(_ context.Context, resumeText, _ string, score types.ScoreResult) (*types.OptimizationResult, error) {
	f.gotScore = score
	if f.err != nil {
		return nil, f.err
	}
	return &types.OptimizationResult{
		OptimizedResume:    resumeText + " (optimized)",
		ChangesSummary:     []string{"Added Go"},
		ExpectedScoreBoost: 12.5,
	}, nil
}

type fakeAnalyzer struct {
	analysis types.GapAnalysis
	err      error
}

func (f fakeAnalyzer) AnalyzeGap(context.Context, types.GapAnalysisInput) (types.GapAnalysis, error) {
	return f.analysis, f.err
}

type fakeRephraser struct{ err error }

func (f fakeRephraser) Rephrase(_ context.Context, in types.RephraseInput) (types.RephraseResult, error) {
	if f.err != nil {
		return types.RephraseResult{}, f.err
	}
	return types.RephraseResult{OptimizedText: "Led " + in.Text}, nil
}

type fakeModel struct{ available bool }

func (f fakeModel) GetModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "test-model", Available: f.available}
}

func (f fakeModel) CircuitBreakerStats() map[string]any {
	return map[string]any{"enabled": true, "state": "closed"}
}

func defaultDeps() Deps {
	return Deps{
		Scorer:    fakeScorer{score: 72.5},
		Optimizer: &fakeOptimizer{},
		Analyzer:  fakeAnalyzer{analysis: types.GapAnalysis{Scores: types.GapScores{Total: 68}}},
		Rephraser: fakeRephraser{},
	}
}

func newTestServer(t *testing.T, deps Deps, mutate func(*ServerConfig)) *Server {
	t.Helper()
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	require.NoError(t, err)

	cfg := ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		Version:        "test",
		MaxRequestSize: 1 << 20,
		MaxFileSize:    1 << 20,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s := NewServer(&config.Config{}, cfg, deps, om, testLogger)
	t.Cleanup(s.cleanupRateLimiter)
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

var validMatch = types.MatchInput{ResumeText: "Go developer", JobDescription: "Hiring Go developer"}

func TestScoreEndpoint(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := postJSON(t, h, "/score", validMatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var result types.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 72.5, result.Score)
	assert.Equal(t, []string{"Add more keywords"}, result.Suggestions)
}

func TestScoreValidation(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	tests := []struct {
		name string
		body any
	}{
		{"empty resume", types.MatchInput{JobDescription: "jd"}},
		{"empty job description", types.MatchInput{ResumeText: "resume"}},
		{"empty body", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/score", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing resume or JD text", decodeError(t, rec).Error)
		})
	}
}

func TestRejectsNonJSONBody(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBufferString("resume"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rec).Error)
}

func TestRequestSizeLimit(t *testing.T) {
	h := newTestServer(t, defaultDeps(), func(c *ServerConfig) { c.MaxRequestSize = 16 }).Handler()

	rec := postJSON(t, h, "/score", validMatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "too large")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/score", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOptimizeReusesScore(t *testing.T) {
	deps := defaultDeps()
	opt := &fakeOptimizer{}
	deps.Optimizer = opt
	h := newTestServer(t, deps, nil).Handler()

	rec := postJSON(t, h, "/optimize", validMatch)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 72.5, opt.gotScore.Score)

	var result types.OptimizationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Go developer (optimized)", result.OptimizedResume)
	assert.Equal(t, 12.5, result.ExpectedScoreBoost)
}

func TestOptimizeFailures(t *testing.T) {
	t.Run("generator error", func(t *testing.T) {
		deps := defaultDeps()
		deps.Optimizer = &fakeOptimizer{err: appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed, "AI service call failed", nil)}
		h := newTestServer(t, deps, nil).Handler()

		rec := postJSON(t, h, "/optimize", validMatch)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "Failed to optimize resume", decodeError(t, rec).Error)
	})

	t.Run("no generator", func(t *testing.T) {
		deps := defaultDeps()
		deps.Optimizer = nil
		deps.AIError = fmt.Errorf("missing API key")
		h := newTestServer(t, deps, nil).Handler()

		rec := postJSON(t, h, "/optimize", validMatch)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "missing API key", decodeError(t, rec).Message)
	})
}

func TestResumeAction(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := postJSON(t, h, "/resume", ResumeRequest{Action: "rewrite", ResumeText: "r", JobDescription: "j"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid action", decodeError(t, rec).Error)

	rec = postJSON(t, h, "/resume", ResumeRequest{Action: "score", ResumeText: "r"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing resume or JD text", decodeError(t, rec).Error)

	rec = postJSON(t, h, "/resume", ResumeRequest{Action: "score", ResumeText: "r", JobDescription: "j"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":72.5`)

	rec = postJSON(t, h, "/resume", ResumeRequest{Action: "optimize", ResumeText: "r", JobDescription: "j"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "r (optimized)")
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := postJSON(t, h, "/analyze", types.GapAnalysisInput{ResumeText: "r", JDText: "j"})
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis types.GapAnalysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, 68.0, analysis.Scores.Total)

	rec = postJSON(t, h, "/analyze", types.GapAnalysisInput{ResumeText: "r"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing resume or JD text", decodeError(t, rec).Error)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "unparseable reply",
			err:        appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid, "Failed to parse analysis result", nil),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to parse analysis result",
		},
		{
			name:       "generator down",
			err:        appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed, "AI service call failed", nil),
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to analyze resume",
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to analyze resume",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := defaultDeps()
			deps.Analyzer = fakeAnalyzer{err: tt.err}
			h := newTestServer(t, deps, nil).Handler()

			rec := postJSON(t, h, "/analyze", types.GapAnalysisInput{ResumeText: "r", JDText: "j"})
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
		})
	}
}

func TestRephraseEndpoint(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := postJSON(t, h, "/rephrase", types.RephraseInput{Text: "a team", JDText: "j"})
	require.Equal(t, http.StatusOK, rec.Code)
	var result types.RephraseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Led a team", result.OptimizedText)

	rec = postJSON(t, h, "/rephrase", types.RephraseInput{Text: "a team"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing text or JD", decodeError(t, rec).Error)

	deps := defaultDeps()
	deps.Rephraser = fakeRephraser{err: appErrors.NewAIError(appErrors.ErrCodeAITimeout, "AI request timed out", nil)}
	h = newTestServer(t, deps, nil).Handler()
	rec = postJSON(t, h, "/rephrase", types.RephraseInput{Text: "a team", JDText: "j"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to optimize text", decodeError(t, rec).Error)
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/parse", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseEndpoint(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "resume.txt", []byte("  Jane Doe\r\nGo developer \n")))
	require.Equal(t, http.StatusOK, rec.Code)
	var result types.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Jane Doe\nGo developer", result.Text)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decodeError(t, rec).Error)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "resume.exe", []byte("MZ")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "Unsupported file type", decodeError(t, rec).Error)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "resume.pdf", []byte("not a pdf")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to parse file", decodeError(t, rec).Error)
}

func TestParseFileTooLarge(t *testing.T) {
	h := newTestServer(t, defaultDeps(), func(c *ServerConfig) { c.MaxFileSize = 8 }).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "resume.txt", bytes.Repeat([]byte("a"), 1024)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestIDPassthrough(t *testing.T) {
	h := newTestServer(t, defaultDeps(), nil).Handler()

	rec := postJSON(t, h, "/score", validMatch, requestIDHeader, "req-123")
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}
