package observability

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/types"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "resumatch-test"
	cfg.Observability.SampleRate = 1.0
	cfg.Observability.CustomMetrics = config.CustomMetricsConfig{
		MatchOperations: config.MatchMetricsConfig{Enabled: true, TrackDuration: true, TrackScores: true},
		Embedding:       config.EmbeddingMetricsConfig{Enabled: true, TrackCache: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true},
	}
	return cfg
}

func TestDisabledManagerIsNoop(t *testing.T) {
	om, err := NewObservabilityManager(GetObservabilityConfig(nil, "test"), nil, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager: %v", err)
	}
	ctx := context.Background()
	om.RecordMatch(ctx, time.Millisecond, &types.MatchReport{FinalScore: 50}, nil)
	om.RecordEmbedding(ctx, "hashing", time.Millisecond, true)
	om.RecordCacheLookup(ctx, true)
	om.RecordRateLimitHit(ctx, "ip")
	if om.GetMetrics().MatchCount != nil {
		t.Error("disabled manager should not create instruments")
	}
	if err := om.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNilManager(t *testing.T) {
	var om *ObservabilityManager
	om.RecordMatch(context.Background(), time.Second, nil, stderrors.New("boom"))
	om.RecordCacheLookup(context.Background(), false)
	if err := om.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	h := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEnabledManagerRecords(t *testing.T) {
	cfg := testConfig()
	om, err := NewObservabilityManager(GetObservabilityConfig(cfg, "test"), cfg, nil)
	if err != nil {
		t.Fatalf("NewObservabilityManager: %v", err)
	}
	defer om.Shutdown(context.Background())

	m := om.GetMetrics()
	if m.MatchCount == nil || m.EmbeddingCount == nil || m.RateLimitHits == nil {
		t.Fatal("instruments not created")
	}

	ctx := context.Background()
	om.RecordMatch(ctx, 20*time.Millisecond, &types.MatchReport{FinalScore: 67.2, KeywordScore: 0}, nil)
	om.RecordMatch(ctx, time.Millisecond, nil, stderrors.New("boom"))
	om.RecordEmbedding(ctx, "hashing", time.Millisecond, false)
	om.RecordCacheLookup(ctx, false)
	om.RecordRateLimitHit(ctx, "api_key")
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.ServiceName = ""
	got := GetObservabilityConfig(cfg, "1.2.3")
	if got.ServiceName != "resumatch" || got.ServiceVersion != "1.2.3" || !got.Enabled {
		t.Errorf("unexpected config: %+v", got)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	reader, mux, err := SetupPrometheusExporter(PrometheusConfig{Enabled: true, Endpoint: "/metrics"})
	if err != nil {
		t.Fatalf("SetupPrometheusExporter: %v", err)
	}
	if reader == nil || mux == nil {
		t.Fatal("expected reader and mux")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}

	reader, mux, err = SetupPrometheusExporter(PrometheusConfig{Enabled: false})
	if err != nil || reader != nil || mux != nil {
		t.Error("disabled exporter should return nothing")
	}
}

func TestGetPrometheusConfigDefaults(t *testing.T) {
	if got := GetPrometheusConfig(nil); got.Enabled || got.Endpoint != "/metrics" || got.Port != "9090" {
		t.Errorf("nil config: %+v", got)
	}

	cfg := testConfig()
	cfg.Observability.Prometheus.Enabled = true
	cfg.Observability.Prometheus.Endpoint = ""
	cfg.Observability.Prometheus.Port = "9464"
	got := GetPrometheusConfig(cfg)
	if !got.Enabled || got.Endpoint != "/metrics" || got.Port != "9464" {
		t.Errorf("unexpected config: %+v", got)
	}
}
