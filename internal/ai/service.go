package ai

import (
	"context"
	"fmt"

	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/optimizer"
	"atsmatch/internal/types"
)

// Service handles AI operations for one configured operation type
type Service struct {
	Provider  AIProvider // Exported for access from server package
	config    *config.OperationAIConfig
	operation string
	usage     UsageRecorder
	logger    *errors.Logger
}

var _ optimizer.Generator = (*Service)(nil)

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	var provider AIProvider
	switch cfg.Provider {
	case "gemini":
		p, err := NewGeminiProvider(cfg, operationType, logger)
		if err != nil {
			if _, ok := errors.AsAppError(err); ok {
				return nil, err
			}
			return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create AI provider", err)
		}
		provider = p
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	return NewServiceWithProvider(provider, cfg, operationType, logger), nil
}

// NewServiceWithProvider wraps an existing provider
func NewServiceWithProvider(provider AIProvider, cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) *Service {
	return &Service{
		Provider:  provider,
		config:    cfg,
		operation: operationType,
		logger:    logger,
	}
}

// SetUsageRecorder sets where token usage is reported. Nil disables reporting.
func (s *Service) SetUsageRecorder(r UsageRecorder) {
	s.usage = r
}

// Operation returns the operation type the service was built for
func (s *Service) Operation() string {
	return s.operation
}

// Generate implements optimizer.Generator
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	text, usage, err := s.Provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	s.record(ctx, usage)
	return text, nil
}

// AnalyzeGap runs a structured gap analysis
func (s *Service) AnalyzeGap(ctx context.Context, input types.GapAnalysisInput) (types.GapAnalysis, error) {
	analysis, usage, err := s.Provider.AnalyzeGap(ctx, input)
	s.record(ctx, usage)
	if err != nil {
		return types.GapAnalysis{}, err
	}
	return analysis, nil
}

// Rephrase rewrites one resume section
func (s *Service) Rephrase(ctx context.Context, input types.RephraseInput) (types.RephraseResult, error) {
	result, usage, err := s.Provider.Rephrase(ctx, input)
	if err != nil {
		return types.RephraseResult{}, err
	}
	s.record(ctx, usage)
	return result, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// CircuitBreakerStats reports the provider's breaker state when it has one
func (s *Service) CircuitBreakerStats() map[string]any {
	if p, ok := s.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return p.GetCircuitBreakerStats()
	}
	return map[string]any{"enabled": false}
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

func (s *Service) record(ctx context.Context, usage *TokenUsage) {
	if s.usage == nil || usage == nil {
		return
	}
	s.usage.RecordTokenUsage(ctx, s.operation, usage.InputTokens, usage.OutputTokens, usage.TotalTokens)
}
