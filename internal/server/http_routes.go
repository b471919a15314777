package server

import (
	"context"
	"net/http"
	"strings"

	"resumatch/internal/observability"

	"github.com/google/uuid"
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Handler returns the fully wrapped HTTP handler for the server's routes.
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	var handler http.Handler = s.setupRoutes(om)
	handler = observability.RequestAttributes(handler)
	handler = requestIDMiddleware(handler)
	return om.HTTPMiddleware()(handler)
}

// route is one API endpoint. Protected routes pass through rate limiting,
// authentication and the request size limit.
type route struct {
	pattern     string
	description string
	protected   bool
	handler     func(s *Server, om *observability.ObservabilityManager) http.HandlerFunc
}

var routes = []route{
	{"GET /health", "Embedding model and circuit breaker status", false,
		func(s *Server, _ *observability.ObservabilityManager) http.HandlerFunc { return s.healthHandler }},
	{"GET /stats", "Server, cache and rate limit statistics", false,
		func(s *Server, _ *observability.ObservabilityManager) http.HandlerFunc { return s.statsHandler }},
	{"POST /match", "Score a resume against a job description", true, (*Server).createMatchHandler},
	{"POST /keywords", "Extract ranked keywords from text", true, (*Server).createKeywordsHandler},
}

// setupRoutes registers every route with its middleware chain.
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware(om)
	sizeLimit := s.requestSizeLimitMiddleware()

	for _, rt := range routes {
		handler := rt.handler(s, om)
		if rt.protected {
			handler = rateLimit(s.authMiddleware(sizeLimit(handler)))
		}
		mux.HandleFunc(rt.pattern, handler)
	}
	return mux
}

// requestIDMiddleware reuses the caller's X-Request-ID or assigns a new one
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.apiKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, r, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.apiKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, r, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// extractAPIKey reads X-API-Key, falling back to an Authorization Bearer token
func extractAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
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

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
