package common

import (
	"fmt"
	"time"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/optimizer"
	"atsmatch/internal/scoring"
)

// Services holds the long-lived collaborators built once at startup and
// shared by every command or request.
type Services struct {
	Pipeline  *scoring.Pipeline
	Optimizer *optimizer.Orchestrator

	// Generator-backed services keyed by operation; missing when the
	// operation could not be configured
	AI map[string]*ai.Service

	// AIError is the first reason a generator-backed service is missing
	AIError error
}

// BuildPipeline creates the scoring pipeline from the optional vocabulary profile
func BuildPipeline(cfg *config.Config, logger *errors.Logger) (*scoring.Pipeline, error) {
	vocab := scoring.DefaultVocabulary()
	if cfg.Scoring.ProfileFile != "" {
		loaded, err := scoring.LoadProfile(cfg.Scoring.ProfileFile)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("Invalid scoring profile: %s", cfg.Scoring.ProfileFile), err)
		}
		vocab = loaded
		logger.Info("Loaded scoring profile",
			"file", cfg.Scoring.ProfileFile,
			"stopwords", vocab.StopwordCount(),
			"sections", len(vocab.Sections()))
	}

	var opts []scoring.Option
	if cfg.Scoring.ParallelScorers {
		opts = append(opts, scoring.WithParallelScorers())
	}
	return scoring.NewPipeline(vocab, opts...), nil
}

// BuildServices creates the pipeline and the generator-backed services for
// operations. A generator failure is not fatal: the service is left out and
// AIError explains why. usage may be nil.
func BuildServices(cfg *config.Config, logger *errors.Logger, usage ai.UsageRecorder, operations ...string) (*Services, error) {
	pipeline, err := BuildPipeline(cfg, logger)
	if err != nil {
		return nil, err
	}

	svcs := &Services{Pipeline: pipeline, AI: make(map[string]*ai.Service)}
	for _, op := range operations {
		opCfg := cfg.GetOperationConfig(op)
		svc, err := ai.NewService(&opCfg, op, logger)
		if err != nil {
			logger.LogError(err, "Generator unavailable", "operation", op)
			if svcs.AIError == nil {
				svcs.AIError = err
			}
			continue
		}
		if usage != nil {
			svc.SetUsageRecorder(usage)
		}
		svcs.AI[op] = svc
	}

	if gen, ok := svcs.AI[config.OperationOptimize]; ok {
		orch, err := NewOptimizer(cfg, pipeline, gen, logger)
		if err != nil {
			return nil, err
		}
		svcs.Optimizer = orch
	}
	return svcs, nil
}

// NewOptimizer wires the rewrite orchestrator to a generator
func NewOptimizer(cfg *config.Config, pipeline *scoring.Pipeline, gen optimizer.Generator, logger *errors.Logger) (*optimizer.Orchestrator, error) {
	opCfg := cfg.GetOptimizeConfig()
	opts := []optimizer.Option{
		optimizer.WithRescore(cfg.Scoring.RescoreOptimized),
		optimizer.WithLogger(logger),
	}
	if opCfg.Prompts.User != "" {
		opts = append(opts, optimizer.WithPromptTemplate(opCfg.Prompts.User))
	}
	if opCfg.Timeout != nil && *opCfg.Timeout > 0 {
		// generator retries happen inside this budget
		opts = append(opts, optimizer.WithTimeout(*opCfg.Timeout*time.Duration(retries(opCfg)+1)))
	}
	return optimizer.New(gen, pipeline, opts...)
}

func retries(cfg config.OperationAIConfig) int {
	if cfg.MaxRetries == nil || *cfg.MaxRetries < 0 {
		return 0
	}
	return *cfg.MaxRetries
}

// Require returns the service for op or the reason it is missing
func (s *Services) Require(op string) (*ai.Service, error) {
	if svc, ok := s.AI[op]; ok {
		return svc, nil
	}
	if s.AIError != nil {
		return nil, s.AIError
	}
	return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
		fmt.Sprintf("Generator for %s is not configured", op), nil)
}

// Close releases every generator-backed service
func (s *Services) Close() error {
	var firstErr error
	for _, svc := range s.AI {
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
