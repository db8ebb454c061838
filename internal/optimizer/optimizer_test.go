package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"atsmatch/internal/errors"
	"atsmatch/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	block   bool
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type fixedSource int

func (s fixedSource) IntN(n int) int { return int(s) % n }

const (
	testResume = "Summary: backend engineer. Experience with python services. Skills: python, sql."
	testJD     = "We need python and kubernetes experience"
)

func newTestOrchestrator(t *testing.T, gen Generator, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(gen, scoring.NewPipeline(nil), opts...)
	require.NoError(t, err)
	return o
}

func TestOptimizeStructuredReply(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"resume\":\"Rewritten resume\",\"changes\":[\"Added kubernetes\",\"Reordered skills\"]}\n```"}
	o := newTestOrchestrator(t, gen, WithBoostSource(fixedSource(3)))

	result, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)

	assert.Equal(t, "Rewritten resume", result.OptimizedResume)
	assert.Equal(t, []string{"Added kubernetes", "Reordered skills"}, result.ChangesSummary)
	assert.Equal(t, 8.0, result.ExpectedScoreBoost)
	assert.Nil(t, result.RescoredTotal)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, testResume)
	assert.Contains(t, prompt, testJD)
	assert.Contains(t, prompt, "Missing Keywords:\nneed, kubernetes\n")
	assert.Contains(t, prompt, "DO NOT hallucinate new jobs, dates, or education")
}

func TestOptimizeRawFallback(t *testing.T) {
	raw := "Here is your improved resume:\nJane Doe, Kubernetes expert"
	o := newTestOrchestrator(t, &fakeGenerator{reply: raw})

	result, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)
	assert.Equal(t, raw, result.OptimizedResume)
	assert.Equal(t, []string{DefaultFallbackNote}, result.ChangesSummary)
}

func TestOptimizeCustomFallbackNote(t *testing.T) {
	o := newTestOrchestrator(t, &fakeGenerator{reply: "not json"}, WithFallbackNote("Rewritten by model"))

	result, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rewritten by model"}, result.ChangesSummary)
}

func TestOptimizeBoostCappedByHeadroom(t *testing.T) {
	pipeline := scoring.NewPipeline(nil)
	score := pipeline.Score(testResume, testJD)
	score.Breakdown.Total = 97.5

	o := newTestOrchestrator(t, &fakeGenerator{reply: "x"}, WithBoostSource(fixedSource(14)))
	result, err := o.OptimizeScored(context.Background(), testResume, testJD, score)
	require.NoError(t, err)
	assert.Equal(t, 2.5, result.ExpectedScoreBoost)
}

func TestOptimizeRescore(t *testing.T) {
	reply, err := json.Marshal(map[string]any{
		"resume":  testResume + " Kubernetes clusters operated daily.",
		"changes": []string{"Added kubernetes"},
	})
	require.NoError(t, err)

	pipeline := scoring.NewPipeline(nil)
	before := pipeline.Score(testResume, testJD).Breakdown.Total

	o := newTestOrchestrator(t, &fakeGenerator{reply: string(reply)}, WithRescore(true))
	result, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)
	require.NotNil(t, result.RescoredTotal)
	assert.Greater(t, *result.RescoredTotal, before)
}

func TestOptimizeGeneratorError(t *testing.T) {
	o := newTestOrchestrator(t, &fakeGenerator{err: stderrors.New("quota exceeded")})

	result, err := o.Optimize(context.Background(), testResume, testJD)
	assert.Nil(t, result)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAIServiceFailed, appErr.Code)
	assert.Equal(t, 502, appErr.HTTPStatus())
}

func TestOptimizeGeneratorAppErrorPassesThrough(t *testing.T) {
	cause := errors.NewAIError(errors.ErrCodeMissingAPIKey, "no key", nil)
	o := newTestOrchestrator(t, &fakeGenerator{err: cause})

	_, err := o.Optimize(context.Background(), testResume, testJD)
	assert.Same(t, cause, err)
}

func TestOptimizeTimeout(t *testing.T) {
	o := newTestOrchestrator(t, &fakeGenerator{block: true}, WithTimeout(20*time.Millisecond))

	_, err := o.Optimize(context.Background(), testResume, testJD)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAITimeout, appErr.Code)
}

func TestOptimizeLogsResponseKind(t *testing.T) {
	var buf bytes.Buffer
	logger := errors.NewLoggerTo(&buf, slog.LevelDebug)
	o := newTestOrchestrator(t, &fakeGenerator{reply: "plain"}, WithLogger(logger))

	_, err := o.Optimize(context.Background(), testResume, testJD)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"response_kind":"raw_fallback"`)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, scoring.NewPipeline(nil))
	assert.Error(t, err)

	_, err = New(&fakeGenerator{}, nil)
	assert.Error(t, err)

	_, err = New(&fakeGenerator{}, scoring.NewPipeline(nil), WithPromptTemplate("only %s here"))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidConfig, appErr.Code)
}

func TestCustomPromptTemplate(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	o := newTestOrchestrator(t, gen, WithPromptTemplate("R=%s|J=%s|M=%s|S=%s"))

	_, err := o.Optimize(context.Background(), "python", "python kubernetes")
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.True(t, strings.HasPrefix(gen.prompts[0], "R=python|J=python kubernetes|M=kubernetes|S="))
}

func TestOptimizeConcurrent(t *testing.T) {
	gen := &fakeGenerator{reply: `{"resume":"r","changes":[]}`}
	o := newTestOrchestrator(t, gen)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := o.Optimize(context.Background(), testResume, testJD)
			assert.NoError(t, err)
			assert.GreaterOrEqual(t, result.ExpectedScoreBoost, 0.0)
			assert.LessOrEqual(t, result.ExpectedScoreBoost, 19.0)
		}()
	}
	wg.Wait()
	assert.Len(t, gen.prompts, 16)
}
