package server

import (
	"fmt"
	"net/http"
)

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(server *http.Server) {
	scheme := "http"
	if server.TLSConfig != nil {
		scheme = "https"
	}
	fmt.Printf("Starting server on %s://%s\n", scheme, server.Addr)
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health    - Health check")
	fmt.Println("  GET  /stats     - Server statistics")
	fmt.Println("  POST /score     - Deterministic ATS score")
	fmt.Println("  POST /optimize  - Score and rewrite resume")
	fmt.Println("  POST /resume    - Score or optimize, chosen by action")
	fmt.Println("  POST /analyze   - Gap analysis")
	fmt.Println("  POST /rephrase  - Rewrite one resume section")
	fmt.Println("  POST /parse     - Extract text from an uploaded document")
	if s.deps.AIError != nil {
		fmt.Printf("Generator: UNAVAILABLE (%v); /optimize, /analyze and /rephrase answer 503\n", s.deps.AIError)
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	switch {
	case len(s.APIKeys) > 0 && len(s.JWTSecret) > 0:
		fmt.Printf("API authentication: ENABLED (%d keys configured, JWT accepted)\n", len(s.APIKeys))
	case len(s.APIKeys) > 0:
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests")
	case len(s.JWTSecret) > 0:
		fmt.Println("API authentication: ENABLED (JWT bearer tokens)")
	default:
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
