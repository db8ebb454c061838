package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"atsmatch/internal/config"
	appErrors "atsmatch/internal/errors"
	"atsmatch/internal/schemas"
	"atsmatch/internal/types"
	"atsmatch/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	defaultRetryBaseDelay = time.Second
	maxRetryBackoff       = 30 * time.Second
	modelCheckTimeout     = 10 * time.Second
)

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

type getModelFunc func(ctx context.Context, model string, cfg *genai.GetModelConfig) (*genai.Model, error)

// GeminiProvider implements AIProvider for Google Gemini. One provider serves
// one operation; its prompts and limits come from that operation's config.
type GeminiProvider struct {
	generateContent generateContentFunc
	getModel        getModelFunc
	config          *config.OperationAIConfig
	operation       string
	circuitBreaker  *AICircuitBreaker
	modelBreaker    *ModelCircuitBreaker
	retryBaseDelay  time.Duration
	logger          *appErrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *appErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured (set ATSMATCH_AI_APIKEY or GEMINI_API_KEY)", nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, appErrors.NewAIError(appErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return newGeminiProvider(cfg, operationType, client.Models.GenerateContent, client.Models.Get, logger)
}

func newGeminiProvider(cfg *config.OperationAIConfig, operationType string, generate generateContentFunc, getModel getModelFunc, logger *appErrors.Logger) (*GeminiProvider, error) {
	if err := validateUserPrompt(operationType, cfg.Prompts.User); err != nil {
		return nil, appErrors.NewConfigError(appErrors.ErrCodeInvalidConfig, "Invalid prompt template", err)
	}

	return &GeminiProvider{
		generateContent: generate,
		getModel:        getModel,
		config:          cfg,
		operation:       operationType,
		circuitBreaker:  NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:    NewModelCircuitBreaker(operationType, cfg, logger),
		retryBaseDelay:  defaultRetryBaseDelay,
		logger:          logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.getModel(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version
	return modelInfo
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"max_retries", maxRetries)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// backoff doubles from retryBaseDelay per attempt, adds up to 10% jitter and
// caps at 30 seconds
func (g *GeminiProvider) backoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * g.retryBaseDelay
	var jitter time.Duration
	if jitterMax := int64(float64(base) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(base+jitter, maxRetryBackoff)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// generate runs one traced, breaker-guarded, retried Gemini call and returns
// the raw response text
func (g *GeminiProvider) generate(ctx context.Context, operationName, userPrompt, systemPrompt string, genaiConfig *genai.GenerateContentConfig, spanAttributes ...attribute.KeyValue) (string, *TokenUsage, error) {
	ctx, span := otel.Tracer("atsmatch.ai.gemini").Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.generateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		code := appErrors.ErrCodeAIServiceFailed
		if errors.Is(err, context.DeadlineExceeded) {
			code = appErrors.ErrCodeAITimeout
		}
		return "", nil, appErrors.NewAIError(code, "Failed to generate content for "+operationName, err).
			WithContext("operation", operationName)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	text := result.Text()
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(text)),
	)
	return text, tokenUsage, nil
}

// GenerateText returns the model's free-form reply to prompt
func (g *GeminiProvider) GenerateText(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	return g.generate(ctx, "generate_text", prompt, g.systemPrompt(g.operation),
		&genai.GenerateContentConfig{},
		attribute.Int("input.prompt_length", len(prompt)))
}

// AnalyzeGap asks for a structured comparison of resume and job description.
// The weighted total is recomputed locally from the three sub-scores.
func (g *GeminiProvider) AnalyzeGap(ctx context.Context, input types.GapAnalysisInput) (types.GapAnalysis, *TokenUsage, error) {
	resume := utils.Truncate(input.ResumeText, maxAnalysisInputChars)
	jd := utils.Truncate(input.JDText, maxAnalysisInputChars)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OperationAnalyze, DefaultAnalyzePrompt), jd, resume)

	text, tokenUsage, err := g.generate(ctx, "analyze_gap", userPrompt, g.systemPrompt(config.OperationAnalyze),
		buildGapAnalysisConfig(),
		attribute.Int("input.resume_length", len(resume)),
		attribute.Int("input.job_length", len(jd)))
	if err != nil {
		return types.GapAnalysis{}, nil, err
	}

	analysis, err := DecodeGapAnalysis(text)
	if err != nil {
		g.logger.LogError(err, "Gap analysis response rejected", "response_length", len(text))
		return types.GapAnalysis{}, tokenUsage, err
	}
	return analysis, tokenUsage, nil
}

// Rephrase rewrites one resume section toward the job description
func (g *GeminiProvider) Rephrase(ctx context.Context, input types.RephraseInput) (types.RephraseResult, *TokenUsage, error) {
	instruction := strings.TrimSpace(input.Instruction)
	if instruction == "" {
		instruction = DefaultRephraseInstruction
	}
	jd := utils.Truncate(input.JDText, maxRephraseJDChars)
	userPrompt := fmt.Sprintf(g.userPrompt(config.OperationRephrase, DefaultRephrasePrompt), jd, input.Text, instruction)

	text, tokenUsage, err := g.generate(ctx, "rephrase", userPrompt, g.systemPrompt(config.OperationRephrase),
		&genai.GenerateContentConfig{},
		attribute.Int("input.text_length", len(input.Text)),
		attribute.Int("input.job_length", len(jd)))
	if err != nil {
		return types.RephraseResult{}, nil, err
	}

	return types.RephraseResult{OptimizedText: cleanRephrased(text)}, tokenUsage, nil
}

// DecodeGapAnalysis validates and decodes a gap analysis reply
func DecodeGapAnalysis(text string) (types.GapAnalysis, error) {
	var analysis types.GapAnalysis

	doc := schemas.StripCodeFences(text)
	if err := schemas.GapAnalysis.Validate(doc); err != nil {
		return analysis, appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid, "Failed to parse analysis result", err)
	}
	if err := json.Unmarshal([]byte(doc), &analysis); err != nil {
		return analysis, appErrors.NewAIError(appErrors.ErrCodeAIResponseInvalid, "Failed to parse analysis result", err)
	}

	s := &analysis.Scores
	s.Total = math.Round((0.5*s.KeywordCoverage+0.3*s.SemanticSimilarity+0.2*s.SeniorityMatch)*10) / 10

	if analysis.Gaps.MissingKeywords == nil {
		analysis.Gaps.MissingKeywords = []string{}
	}
	if analysis.Gaps.WeakMatches == nil {
		analysis.Gaps.WeakMatches = []types.WeakMatch{}
	}
	if analysis.OverRepresented == nil {
		analysis.OverRepresented = []string{}
	}
	return analysis, nil
}

// cleanRephrased trims the reply and drops one pair of wrapping quotes, which
// the model tends to copy from the quoted original
func cleanRephrased(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// The genai client holds no resources outside streaming calls.
	return nil
}

// buildGapAnalysisConfig constrains the reply to the gap analysis shape
func buildGapAnalysisConfig() *genai.GenerateContentConfig {
	stringList := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"scores": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"total":               {Type: genai.TypeNumber},
						"keyword_coverage":    {Type: genai.TypeNumber},
						"semantic_similarity": {Type: genai.TypeNumber},
						"seniority_match":     {Type: genai.TypeNumber},
					},
					Required: []string{"keyword_coverage", "semantic_similarity", "seniority_match"},
				},
				"gaps": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"missing_keywords": stringList,
						"weak_matches": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type: genai.TypeObject,
								Properties: map[string]*genai.Schema{
									"resume_term":   {Type: genai.TypeString},
									"jd_preference": {Type: genai.TypeString},
									"reason":        {Type: genai.TypeString},
								},
								Required: []string{"resume_term", "jd_preference", "reason"},
							},
						},
					},
					Required: []string{"missing_keywords", "weak_matches"},
				},
				"over_represented": stringList,
				"seniority_analysis": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"jd_level":     {Type: genai.TypeString},
						"resume_level": {Type: genai.TypeString},
						"status": {
							Type: genai.TypeString,
							Enum: []string{types.SeniorityMatch, types.SeniorityUnderqualified, types.SeniorityOverqualified},
						},
						"reason": {Type: genai.TypeString},
					},
					Required: []string{"jd_level", "resume_level", "status", "reason"},
				},
			},
			Required: []string{"scores", "gaps", "over_represented", "seniority_analysis"},
		},
	}
}

// systemPrompt returns the configured system prompt when operation is the one
// this provider was built for, else the default
func (g *GeminiProvider) systemPrompt(operation string) string {
	if operation == g.operation {
		return resolvePrompt(g.config.Prompts.System, DefaultSystemPrompts[operation])
	}
	return DefaultSystemPrompts[operation]
}

func (g *GeminiProvider) userPrompt(operation, fallback string) string {
	if operation == g.operation {
		return resolvePrompt(g.config.Prompts.User, fallback)
	}
	return fallback
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
