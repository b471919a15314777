package observability

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for resumatch
type Metrics struct {
	// Pipeline
	MatchDuration metric.Float64Histogram
	MatchCount    metric.Int64Counter
	MatchErrors   metric.Int64Counter
	FinalScore    metric.Float64Histogram
	KeywordScore  metric.Float64Histogram

	// Embedding
	EmbeddingDuration metric.Float64Histogram
	EmbeddingCount    metric.Int64Counter
	EmbeddingErrors   metric.Int64Counter
	CacheHits         metric.Int64Counter
	CacheMisses       metric.Int64Counter

	RateLimitHits metric.Int64Counter
}

// scoreBuckets covers the 0-100 score range in steps of ten.
var scoreBuckets = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

// instrumentSet creates instruments on one meter and keeps the first error.
type instrumentSet struct {
	meter metric.Meter
	err   error
}

func (s *instrumentSet) counter(name, description string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(description))
	s.note(name, err)
	return c
}

func (s *instrumentSet) seconds(name, description string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit("s"))
	s.note(name, err)
	return h
}

func (s *instrumentSet) score(name, description string) metric.Float64Histogram {
	h, err := s.meter.Float64Histogram(name, metric.WithDescription(description),
		metric.WithExplicitBucketBoundaries(scoreBuckets...))
	s.note(name, err)
	return h
}

func (s *instrumentSet) note(name string, err error) {
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("failed to create metric %s: %w", name, err)
	}
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	set := &instrumentSet{meter: meter}
	m := &Metrics{
		MatchDuration: set.seconds("resumatch_match_duration_seconds", "Time spent scoring a resume against a job description"),
		MatchCount:    set.counter("resumatch_matches_total", "Total number of match runs"),
		MatchErrors:   set.counter("resumatch_match_errors_total", "Total number of failed match runs"),
		FinalScore:    set.score("resumatch_final_score", "Distribution of final match scores"),
		KeywordScore:  set.score("resumatch_keyword_score", "Distribution of keyword overlap scores"),

		EmbeddingDuration: set.seconds("resumatch_embedding_duration_seconds", "Time spent producing a text embedding"),
		EmbeddingCount:    set.counter("resumatch_embeddings_total", "Total number of embedding requests sent to the provider"),
		EmbeddingErrors:   set.counter("resumatch_embedding_errors_total", "Total number of failed embedding requests"),
		CacheHits:         set.counter("resumatch_embedding_cache_hits_total", "Embedding cache hits"),
		CacheMisses:       set.counter("resumatch_embedding_cache_misses_total", "Embedding cache misses"),

		RateLimitHits: set.counter("resumatch_rate_limit_hits_total", "Total number of rate limit hits"),
	}
	if set.err != nil {
		return nil, set.err
	}
	return m, nil
}

// GetMetrics returns the metrics instance
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// recording reports whether instruments exist, i.e. telemetry is enabled.
func (om *ObservabilityManager) recording() bool {
	return om != nil && om.metrics != nil
}

// RecordMatch records one pipeline run
func (om *ObservabilityManager) RecordMatch(ctx context.Context, duration time.Duration, report *types.MatchReport, err error) {
	if !om.recording() {
		return
	}
	settings := om.customMetrics().MatchOperations
	if !settings.Enabled {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	om.metrics.MatchCount.Add(ctx, 1, attrs)
	if settings.TrackDuration {
		om.metrics.MatchDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if err != nil {
		om.metrics.MatchErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error_type", errorType(err))))
		return
	}
	if settings.TrackScores && report != nil {
		om.metrics.FinalScore.Record(ctx, report.FinalScore)
		om.metrics.KeywordScore.Record(ctx, report.KeywordScore)
	}
}

func errorType(err error) string {
	if appErr, ok := errors.As(err); ok {
		return string(appErr.Type)
	}
	return "unknown"
}

// RecordEmbedding records one call to the embedding provider
func (om *ObservabilityManager) RecordEmbedding(ctx context.Context, provider string, duration time.Duration, success bool) {
	if !om.recording() || !om.customMetrics().Embedding.Enabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.Bool("success", success),
	)
	om.metrics.EmbeddingCount.Add(ctx, 1, attrs)
	om.metrics.EmbeddingDuration.Record(ctx, duration.Seconds(), attrs)
	if !success {
		om.metrics.EmbeddingErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
	}
}

// RecordCacheLookup records an embedding cache hit or miss
func (om *ObservabilityManager) RecordCacheLookup(ctx context.Context, hit bool) {
	if !om.recording() {
		return
	}
	if settings := om.customMetrics().Embedding; !settings.Enabled || !settings.TrackCache {
		return
	}
	if hit {
		om.metrics.CacheHits.Add(ctx, 1)
	} else {
		om.metrics.CacheMisses.Add(ctx, 1)
	}
}

// RecordRateLimitHit records a request rejected by the rate limiter
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, limitType string) {
	if !om.recording() || !om.customMetrics().Infrastructure.TrackRateLimits {
		return
	}
	om.metrics.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_type", limitType)))
}

// customMetrics returns the metric switches, all on when no config was given.
func (om *ObservabilityManager) customMetrics() config.CustomMetricsConfig {
	if om.fullConfig != nil {
		return om.fullConfig.Observability.CustomMetrics
	}
	return config.CustomMetricsConfig{
		MatchOperations: config.MatchMetricsConfig{Enabled: true, TrackDuration: true, TrackScores: true},
		Embedding:       config.EmbeddingMetricsConfig{Enabled: true, TrackCache: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true},
	}
}
