package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// requestIDHeader carries the request correlation ID in both directions
const requestIDHeader = "X-Request-ID"

// Handler returns the fully wrapped API handler
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.requestIDMiddleware(s.setupRoutes()))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimitHandler := s.rateLimitMiddleware()
	requestLimitHandler := s.requestSizeLimitMiddleware()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("POST /score", protected(s.handleScore))
	mux.HandleFunc("POST /optimize", protected(s.handleOptimize))
	mux.HandleFunc("POST /resume", protected(s.handleResume))
	mux.HandleFunc("POST /analyze", protected(s.handleAnalyze))
	mux.HandleFunc("POST /rephrase", protected(s.handleRephrase))
	mux.HandleFunc("POST /parse", rateLimitHandler(s.authMiddleware(s.handleParse)))

	return mux
}

// requestIDMiddleware tags every request with an ID, reusing the caller's when present
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the ID assigned by requestIDMiddleware
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

// authMiddleware accepts a static API key or a bearer JWT
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if nothing is configured
		if len(s.APIKeys) == 0 && len(s.JWTSecret) == 0 {
			next(w, r)
			return
		}

		credential := bearerOrAPIKey(r)
		if credential == "" {
			s.Logger.Info("Authentication failed: missing credentials",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"request_id", requestID(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if s.APIKeys[credential] {
			s.Logger.Debug("API authentication successful",
				"endpoint", r.URL.Path,
				"method", "api_key",
				"api_key_prefix", maskAPIKey(credential))
			next(w, r)
			return
		}

		if len(s.JWTSecret) > 0 {
			claims, err := validateToken(credential, s.JWTSecret)
			if err == nil {
				s.Logger.Debug("API authentication successful",
					"endpoint", r.URL.Path,
					"method", "jwt",
					"subject", claims.Subject)
				next(w, r)
				return
			}
			s.Logger.Debug("JWT rejected", "error", err)
		}

		s.Logger.Info("Authentication failed: invalid credentials",
			"endpoint", r.URL.Path,
			"client_ip", getClientIP(r),
			"api_key_prefix", maskAPIKey(credential),
			"request_id", requestID(r))
		writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// bearerOrAPIKey reads X-API-Key, falling back to an Authorization bearer token
func bearerOrAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
