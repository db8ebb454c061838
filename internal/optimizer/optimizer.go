// Package optimizer asks an external text generator to rewrite a resume
// toward a job description, using the scoring pipeline's diagnostics as
// guidance. Generator output is best-effort: unstructured replies degrade to a
// verbatim rewrite instead of failing the request.
package optimizer

import (
	"context"
	"fmt"
	"time"

	"atsmatch/internal/errors"
	"atsmatch/internal/scoring"
	"atsmatch/internal/types"
)

// DefaultFallbackNote is the change entry used when the reply is not structured
const DefaultFallbackNote = "Optimized using Gemini"

// Generator produces free-form text for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Scorer runs the deterministic pipeline. *scoring.Pipeline implements it.
type Scorer interface {
	Score(resumeText, jobDescription string) types.ScoreResult
}

var _ Scorer = (*scoring.Pipeline)(nil)

// Orchestrator builds the rewrite prompt, calls the generator and assembles
// the OptimizationResult. It is safe for concurrent use when its Generator and
// BoostSource are.
type Orchestrator struct {
	generator    Generator
	scorer       Scorer
	boost        BoostSource
	template     string
	fallbackNote string
	timeout      time.Duration
	rescore      bool
	logger       *errors.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithBoostSource replaces the process-wide random source
func WithBoostSource(src BoostSource) Option {
	return func(o *Orchestrator) { o.boost = src }
}

// WithPromptTemplate replaces DefaultPromptTemplate. Empty keeps the default.
func WithPromptTemplate(tpl string) Option {
	return func(o *Orchestrator) {
		if tpl != "" {
			o.template = tpl
		}
	}
}

// WithFallbackNote sets the change entry for unstructured replies
func WithFallbackNote(note string) Option {
	return func(o *Orchestrator) {
		if note != "" {
			o.fallbackNote = note
		}
	}
}

// WithTimeout bounds each generator call. Zero means no extra deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// WithRescore runs the rewritten resume back through the scorer and reports
// the result in RescoredTotal. ExpectedScoreBoost is unaffected.
func WithRescore(enabled bool) Option {
	return func(o *Orchestrator) { o.rescore = enabled }
}

// WithLogger sets the logger
func WithLogger(logger *errors.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an Orchestrator
func New(generator Generator, scorer Scorer, opts ...Option) (*Orchestrator, error) {
	if generator == nil {
		return nil, fmt.Errorf("optimizer: generator is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("optimizer: scorer is required")
	}

	o := &Orchestrator{
		generator:    generator,
		scorer:       scorer,
		boost:        globalSource{},
		template:     DefaultPromptTemplate,
		fallbackNote: DefaultFallbackNote,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := ValidateTemplate(o.template); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid optimize prompt template", err)
	}
	return o, nil
}

// Optimize scores the pair and then rewrites the resume
func (o *Orchestrator) Optimize(ctx context.Context, resumeText, jobDescription string) (*types.OptimizationResult, error) {
	score := o.scorer.Score(resumeText, jobDescription)
	return o.OptimizeScored(ctx, resumeText, jobDescription, score)
}

// OptimizeScored rewrites the resume using an existing score for the same pair.
// A generator failure is returned as an AI error; a malformed reply is not an
// error.
func (o *Orchestrator) OptimizeScored(ctx context.Context, resumeText, jobDescription string, score types.ScoreResult) (*types.OptimizationResult, error) {
	prompt := BuildPrompt(o.template, resumeText, jobDescription, score.Analysis.MissingKeywords, score.Suggestions)

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := o.generator.Generate(callCtx, prompt)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, errors.NewAIError(errors.ErrCodeAITimeout, "resume rewrite timed out", err).
				WithContext("timeout", o.timeout.String())
		}
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "resume rewrite failed", err)
	}

	parsed := ParseResponse(raw, o.fallbackNote)
	if o.logger != nil {
		args := []any{
			"response_kind", parsed.Kind.String(),
			"changes", len(parsed.Changes),
			"duration", time.Since(start),
		}
		if parsed.Reason != nil {
			args = append(args, "reason", parsed.Reason.Error())
		}
		o.logger.Info("Resume rewrite completed", args...)
	}

	result := &types.OptimizationResult{
		OptimizedResume:    parsed.Resume,
		ChangesSummary:     parsed.Changes,
		ExpectedScoreBoost: ExpectedBoost(score.Breakdown.Total, o.boost),
	}

	if o.rescore {
		rescored := o.scorer.Score(parsed.Resume, jobDescription).Breakdown.Total
		result.RescoredTotal = &rescored
	}

	return result, nil
}
