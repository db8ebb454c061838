package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	appErrors "atsmatch/internal/errors"
)

// healthCheckTimeout bounds the model lookups made by /health
const healthCheckTimeout = 10 * time.Second

// healthHandler reports service health including generator model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":         "healthy",
		"service":        "atsmatch",
		"version":        s.Version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"scoring":        map[string]any{"available": s.deps.Scorer != nil},
	}

	aiStatus, aiHealthy := s.checkAIModelsHealth(r.Context())
	response["ai_models"] = aiStatus
	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	status := http.StatusOK
	if !aiHealthy || s.deps.Scorer == nil {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

// checkAIModelsHealth checks every configured generator model. A deployment
// without generator credentials is reported but does not count as degraded,
// since scoring still works.
func (s *Server) checkAIModelsHealth(parent context.Context) (map[string]any, bool) {
	ctx, cancel := context.WithTimeout(parent, healthCheckTimeout)
	defer cancel()

	aiStatus := make(map[string]any)
	if len(s.deps.Models) == 0 {
		notConfigured := map[string]any{"status": "not configured"}
		if s.deps.AIError != nil {
			notConfigured["error"] = s.deps.AIError.Error()
		}
		aiStatus["generator"] = notConfigured
		return aiStatus, true
	}

	healthy := true
	for operation, checker := range s.deps.Models {
		info := checker.GetModelInfo(ctx)
		if info == nil || !info.Available {
			healthy = false
		}
		aiStatus[operation] = info
	}
	return aiStatus, healthy
}

// checkCircuitBreakerHealth collects breaker stats from services that expose them
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)
	for operation, checker := range s.deps.Models {
		if reporter, ok := checker.(interface{ CircuitBreakerStats() map[string]any }); ok {
			status[operation] = reporter.CircuitBreakerStats()
		}
	}
	return status
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "atsmatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_file_size_bytes":    s.MaxFileSize,
			"auth": map[string]any{
				"api_keys": len(s.APIKeys),
				"jwt":      len(s.JWTSecret) > 0,
			},
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() { _ = r.Body.Close() }()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   title,
		Message: message,
	})
}

// writeAppError maps an operation failure onto an error response. title is
// used for generator failures; validation, extraction and invalid-response
// errors carry their own message as the title.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error, title string) {
	s.Logger.LogError(err, title,
		"endpoint", r.URL.Path,
		"request_id", requestID(r))

	appErr, ok := appErrors.AsAppError(err)
	if !ok {
		writeErrorResponse(w, title, err.Error(), http.StatusInternalServerError)
		return
	}

	switch {
	case appErr.Code == appErrors.ErrCodeAIResponseInvalid,
		appErr.Type == appErrors.ErrorTypeValidation,
		appErr.Type == appErrors.ErrorTypeExtraction:
		writeErrorResponse(w, appErr.Message, "", appErr.HTTPStatus())
	default:
		writeErrorResponse(w, title, appErr.Message, appErr.HTTPStatus())
	}
}
