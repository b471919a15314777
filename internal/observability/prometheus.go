package observability

import (
	"fmt"
	"net/http"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// SetupPrometheusExporter creates a Prometheus metrics reader backed by its
// own registry and a mux serving that registry at config.Endpoint.
func SetupPrometheusExporter(config PrometheusConfig) (metric.Reader, *http.ServeMux, error) {
	if !config.Enabled {
		return nil, nil, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = defaultMetricsEndpoint
	}
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return exporter, mux, nil
}

// StartPrometheusServer serves mux on port in the background and returns
// the server so it can be shut down. A nil mux starts nothing.
func StartPrometheusServer(mux *http.ServeMux, port string, logger *errors.Logger) *http.Server {
	if mux == nil {
		return nil
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		logger.Info("Starting Prometheus metrics server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Prometheus server error", "address", srv.Addr)
		}
	}()
	return srv
}

const (
	defaultMetricsEndpoint = "/metrics"
	defaultMetricsPort     = "9090"
)

// GetPrometheusConfig maps the scrape settings out of cfg, filling in the
// default endpoint and port. A nil cfg disables scraping.
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	out := PrometheusConfig{Endpoint: defaultMetricsEndpoint, Port: defaultMetricsPort}
	if cfg == nil {
		return out
	}
	prom := cfg.Observability.Prometheus
	out.Enabled = prom.Enabled
	if prom.Endpoint != "" {
		out.Endpoint = prom.Endpoint
	}
	if prom.Port != "" {
		out.Port = prom.Port
	}
	return out
}
