package embedding

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
)

// Recorder receives embedding telemetry.
type Recorder interface {
	RecordEmbedding(ctx context.Context, provider string, duration time.Duration, success bool)
	RecordCacheLookup(ctx context.Context, hit bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordEmbedding(context.Context, string, time.Duration, bool) {}
func (noopRecorder) RecordCacheLookup(context.Context, bool)                      {}

// Service is the Embedder used by the rest of the application. It puts the
// optional cache and telemetry in front of a provider.
type Service struct {
	provider string
	embedder Embedder
	cache    *TieredCache
	recorder Recorder
	logger   *errors.Logger
}

var _ Embedder = (*Service)(nil)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder routes embedding telemetry to r.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithCache memoizes embeddings in c.
func WithCache(c *TieredCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// NewService creates the provider selected by cfg.Provider
func NewService(cfg *config.EmbeddingConfig, logger *errors.Logger, opts ...ServiceOption) (*Service, error) {
	logger.Debug("Initializing embedding service",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"timeout", cfg.Timeout,
		"dimensions", cfg.Dimensions,
		"cache_enabled", cfg.Cache.Enabled)

	var embedder Embedder
	switch cfg.Provider {
	case "gemini":
		gemini, err := NewGeminiEmbedder(cfg, logger)
		if err != nil {
			return nil, err
		}
		embedder = gemini
	case "hashing":
		embedder = NewHashingEmbedder(cfg.Dimensions)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported embedding provider: %s", cfg.Provider), nil)
	}

	if cfg.Cache.Enabled {
		opts = append([]ServiceOption{WithCache(NewTieredCache(cfg.Cache, logger))}, opts...)
	}
	return NewServiceFor(cfg.Provider, embedder, logger, opts...), nil
}

// NewServiceFor wraps an existing embedder.
func NewServiceFor(provider string, embedder Embedder, logger *errors.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		embedder: embedder,
		recorder: noopRecorder{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Model() string { return s.embedder.Model() }

// Provider returns the configured provider name.
func (s *Service) Provider() string { return s.provider }

// Embed returns the cached vector for text or asks the provider for it.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	var key string
	if s.cache != nil {
		key = CacheKey(s.embedder.Model(), text)
		if vector, ok := s.cache.Get(ctx, key); ok {
			s.recorder.RecordCacheLookup(ctx, true)
			return vector, nil
		}
		s.recorder.RecordCacheLookup(ctx, false)
	}

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, text)
	s.recorder.RecordEmbedding(ctx, s.provider, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, vector)
	}
	return vector, nil
}

// ModelInfo reports model availability. Local providers are always available.
func (s *Service) ModelInfo(ctx context.Context) *ModelInfo {
	if hc, ok := s.embedder.(HealthChecker); ok {
		return hc.ModelInfo(ctx)
	}
	return &ModelInfo{Name: s.embedder.Model(), Available: true}
}

// Stats returns provider and cache statistics
func (s *Service) Stats() map[string]any {
	stats := map[string]any{
		"provider": s.provider,
		"model":    s.embedder.Model(),
	}
	if sp, ok := s.embedder.(StatsProvider); ok {
		stats["circuit_breakers"] = sp.Stats()
	}
	if s.cache != nil {
		stats["cache"] = s.cache.Stats()
	} else {
		stats["cache"] = map[string]any{"enabled": false}
	}
	return stats
}

// Close releases the cache.
func (s *Service) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
