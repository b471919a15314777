package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// GeminiEmbedder implements Embedder with the Gemini embedding API
type GeminiEmbedder struct {
	client       *genai.Client
	config       *config.EmbeddingConfig
	breaker      *CircuitBreaker[*genai.EmbedContentResponse]
	modelBreaker *CircuitBreaker[*genai.Model]
	logger       *resumatchErrors.Logger
}

var (
	_ Embedder      = (*GeminiEmbedder)(nil)
	_ HealthChecker = (*GeminiEmbedder)(nil)
	_ StatsProvider = (*GeminiEmbedder)(nil)
)

// NewGeminiEmbedder creates a Gemini client for the configured model
func NewGeminiEmbedder(cfg *config.EmbeddingConfig, logger *resumatchErrors.Logger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured (set embedding.apiKey or GEMINI_API_KEY)", nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, resumatchErrors.NewConfigError(resumatchErrors.ErrCodeInvalidConfig,
			"Failed to create Gemini client", err)
	}

	// Model lookups are only used by health checks, so they trip on their own breaker.
	modelCfg := cfg.CircuitBreaker
	modelCfg.MinRequests = 5
	modelCfg.FailureThreshold = 0.8

	return &GeminiEmbedder{
		client:       client,
		config:       cfg,
		breaker:      NewCircuitBreaker[*genai.EmbedContentResponse]("Embed", cfg.CircuitBreaker, logger),
		modelBreaker: NewCircuitBreaker[*genai.Model]("Model", modelCfg, logger),
		logger:       logger,
	}, nil
}

func (g *GeminiEmbedder) Model() string { return g.config.Model }

// Embed encodes text with a single EmbedContent call. Failures are not
// retried; transient ones carry retryable=true in the error context.
func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("resumatch.embedding.gemini")
	ctx, span := tracer.Start(ctx, "gemini.embed_content")
	defer span.End()

	span.SetAttributes(
		attribute.String("embedding.provider", "gemini"),
		attribute.String("embedding.model", g.config.Model),
		attribute.Int("input.length", len(text)),
	)

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	resp, err := g.breaker.Execute(func() (*genai.EmbedContentResponse, error) {
		return g.client.Models.EmbedContent(ctx, g.config.Model, contents, g.embedConfig())
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, g.classify(ctx, err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, resumatchErrors.NewEncodingError(resumatchErrors.ErrCodeEncodingFailed,
			"Gemini returned no embedding values", nil).WithContext("model", g.config.Model)
	}

	values := resp.Embeddings[0].Values
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("embedding.dimensions", len(values)),
	)
	return values, nil
}

func (g *GeminiEmbedder) embedConfig() *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: g.config.TaskType}
	if g.config.Dimensions > 0 {
		dims := int32(g.config.Dimensions)
		cfg.OutputDimensionality = &dims
	}
	return cfg
}

func (g *GeminiEmbedder) classify(ctx context.Context, err error) error {
	code := resumatchErrors.ErrCodeEncodingFailed
	message := "Failed to embed text with Gemini"
	switch {
	case isBreakerRejection(err):
		code = resumatchErrors.ErrCodeCircuitOpen
		message = "Gemini embedding circuit breaker is open"
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		code = resumatchErrors.ErrCodeEncodingTimeout
		message = "Gemini embedding request timed out"
	}

	retryable := isRetryableError(err)
	g.logger.Warn("Embedding request failed",
		"model", g.config.Model,
		"code", code,
		"retryable", retryable,
		"error", err.Error())

	return resumatchErrors.NewEncodingError(code, message, err).
		WithContext("model", g.config.Model).
		WithContext("retryable", retryable)
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiEmbedder) ModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", info.DisplayName,
		"version", info.Version)
	return info
}

// Stats returns circuit breaker statistics
func (g *GeminiEmbedder) Stats() map[string]any {
	return map[string]any{
		"embed_operations": g.breaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.breaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// isRetryableError reports whether a failed call could succeed if repeated.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if isBreakerRejection(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	switch apiErrorCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// apiErrorCode returns the HTTP status of a Gemini API error in err's chain,
// or 0. The client returns genai.APIError by value.
func apiErrorCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
