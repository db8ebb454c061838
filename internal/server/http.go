package server

import (
	"context"
	"time"

	"atsmatch/internal/ai"
	"atsmatch/internal/config"
	appErrors "atsmatch/internal/errors"
	"atsmatch/internal/observability"
	"atsmatch/internal/types"

	"github.com/go-playground/validator/v10"
)

// ResumeRequest is the body of POST /resume, which scores or optimizes
// depending on Action
type ResumeRequest struct {
	Action         string `json:"action" validate:"required,oneof=score optimize"`
	ResumeText     string `json:"resumeText" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Scorer runs the deterministic scoring pipeline
type Scorer interface {
	Score(resumeText, jobDescription string) types.ScoreResult
}

// Optimizer rewrites a resume given its score
type Optimizer interface {
	OptimizeScored(ctx context.Context, resumeText, jobDescription string, score types.ScoreResult) (*types.OptimizationResult, error)
}

// GapAnalyzer runs the generator-backed gap analysis
type GapAnalyzer interface {
	AnalyzeGap(ctx context.Context, input types.GapAnalysisInput) (types.GapAnalysis, error)
}

// Rephraser rewrites one resume section
type Rephraser interface {
	Rephrase(ctx context.Context, input types.RephraseInput) (types.RephraseResult, error)
}

// ModelChecker reports generator model availability for /health
type ModelChecker interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
}

// Deps are the operations the API serves. Scorer is required; a nil
// generator-backed dependency makes its endpoint answer 503 with AIError.
type Deps struct {
	Scorer    Scorer
	Optimizer Optimizer
	Analyzer  GapAnalyzer
	Rephraser Rephraser

	// Models keyed by operation name, checked by /health
	Models map[string]ModelChecker

	// AIError explains why generator-backed operations are unavailable
	AIError error
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys   map[string]bool
	JWTSecret []byte

	// Timeout configurations
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Request size limits
	MaxRequestSize int64
	MaxFileSize    int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *appErrors.Logger

	deps      Deps
	om        *observability.ObservabilityManager
	validate  *validator.Validate
	startedAt time.Time
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host            string
	Port            string
	Version         string
	TLSConfig       config.TLSConfig
	APIKeys         []string
	JWTSecret       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxRequestSize  int64
	MaxFileSize     int64
	RateLimit       *config.RateLimitConfig
}

// ServerConfigFrom derives a ServerConfig from the application configuration
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Version:         version,
		TLSConfig:       cfg.Server.TLS,
		APIKeys:         cfg.Server.APIKeys,
		JWTSecret:       cfg.Server.JWTSecret,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxRequestSize:  cfg.Server.MaxRequestSize,
		MaxFileSize:     cfg.App.MaxFileSize,
		RateLimit:       &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Deps, om *observability.ObservabilityManager, logger *appErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	var jwtSecret []byte
	if cfg.JWTSecret != "" {
		jwtSecret = []byte(cfg.JWTSecret)
	}

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &Server{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         cfg.Version,
		AppConfig:       appCfg,
		TLSConfig:       cfg.TLSConfig,
		APIKeys:         apiKeyMap,
		JWTSecret:       jwtSecret,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: shutdownTimeout,
		MaxRequestSize:  cfg.MaxRequestSize,
		MaxFileSize:     cfg.MaxFileSize,
		RateLimit:       cfg.RateLimit,
		RateLimiter:     rateLimiter,
		Logger:          logger,
		deps:            deps,
		om:              om,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		startedAt:       time.Now(),
	}
}
