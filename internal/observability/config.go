package observability

import (
	"net/http"

	"resumatch/internal/config"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const defaultServiceName = "resumatch"

// GetObservabilityConfig derives the telemetry settings from cfg. A nil cfg
// yields disabled telemetry; an unset service version falls back to the
// build version.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	out := ObservabilityConfig{
		ServiceName:    defaultServiceName,
		ServiceVersion: version,
		SampleRate:     1.0,
		Prometheus:     GetPrometheusConfig(cfg),
	}
	if cfg == nil {
		return out
	}

	obs := cfg.Observability
	if obs.ServiceName != "" {
		out.ServiceName = obs.ServiceName
	}
	if obs.ServiceVersion != "" {
		out.ServiceVersion = obs.ServiceVersion
	}
	out.Enabled = obs.Enabled
	out.ConsoleOutput = obs.ConsoleOutput
	out.PrettyPrint = obs.Console.PrettyPrint
	out.SampleRate = obs.SampleRate
	return out
}

// RequestAttributes tags the request span started by HTTPMiddleware with
// request details.
func RequestAttributes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := oteltrace.SpanFromContext(r.Context())
		if span.IsRecording() {
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			)
		}
		next.ServeHTTP(w, r)
	})
}
