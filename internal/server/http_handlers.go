package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	resumatchErrors "resumatch/internal/errors"

	"github.com/go-playground/validator/v10"
)

var validate = newRequestValidator()

// newRequestValidator reports fields by their JSON names
func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return 10 * time.Second
}

// healthHandler reports embedding model availability and breaker state
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
	defer cancel()

	response := map[string]any{
		"status":  "healthy",
		"service": "resumatch",
		"version": s.Version,
	}
	status := http.StatusOK

	embedder := s.Components.Embedder
	modelInfo := embedder.ModelInfo(ctx)
	response["embedding"] = map[string]any{
		"provider": embedder.Provider(),
		"model":    modelInfo,
	}
	if breakers, ok := embedder.Stats()["circuit_breakers"]; ok {
		response["circuit_breakers"] = breakers
	}
	response["stopwords"] = s.Components.Stopwords.Language()

	if !modelInfo.Available {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, r, status, response)
}

// statsHandler reports embedding cache, breaker and rate limiting statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.apiKeys) > 0,
		},
		"embedding": s.Components.Embedder.Stats(),
	}

	pipelineOpts := s.Components.Pipeline.Options()
	response["matching"] = map[string]any{
		"max_keywords":    pipelineOpts.MaxKeywords,
		"semantic_weight": pipelineOpts.Weights.Semantic,
		"keyword_weight":  pipelineOpts.Weights.Keyword,
		"overlap_mode":    string(pipelineOpts.OverlapMode),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

// parseJSONRequest parses a JSON request body into v
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

// validateRequest checks struct tags and names the offending JSON fields
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s field is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// statusForError maps application errors to HTTP status codes
func statusForError(err error) int {
	appErr, ok := resumatchErrors.As(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case resumatchErrors.ErrorTypeEmptyInput:
		return http.StatusUnprocessableEntity
	case resumatchErrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case resumatchErrors.ErrorTypeEncoding, resumatchErrors.ErrorTypeNetwork:
		switch appErr.Code {
		case resumatchErrors.ErrCodeEncodingTimeout, resumatchErrors.ErrCodeNetworkTimeout:
			return http.StatusGatewayTimeout
		case resumatchErrors.ErrCodeCircuitOpen:
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError logs err and writes it with its mapped status
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, summary string, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, summary,
			"endpoint", r.URL.Path,
			"request_id", requestIDFrom(r.Context()))
	}

	resp := ErrorResponse{
		Error:     summary,
		Message:   err.Error(),
		RequestID: requestIDFrom(r.Context()),
	}
	if appErr, ok := resumatchErrors.As(err); ok {
		resp.Message = appErr.Message
		resp.Code = appErr.Code
	}
	writeError(w, resp, status)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, r *http.Request, summary, message string, statusCode int) {
	writeError(w, ErrorResponse{
		Error:     summary,
		Message:   message,
		RequestID: requestIDFrom(r.Context()),
	}, statusCode)
}

func writeError(w http.ResponseWriter, resp ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
