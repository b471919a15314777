package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	ConsoleOutput  bool
	PrettyPrint    bool
	SampleRate     float64
	Prometheus     PrometheusConfig
}

// ObservabilityManager manages OpenTelemetry setup and records the
// pipeline's custom metrics.
type ObservabilityManager struct {
	config           ObservabilityConfig
	fullConfig       *config.Config
	resource         *resource.Resource
	tracerProvider   *trace.TracerProvider
	meterProvider    *sdkmetric.MeterProvider
	metrics          *Metrics
	shutdownFuncs    []func(context.Context) error
	prometheusServer *http.Server
	logger           *errors.Logger
}

// NewObservabilityManager creates a new observability manager. A disabled
// configuration yields a manager whose recorders do nothing.
func NewObservabilityManager(obsConfig ObservabilityConfig, fullConfig *config.Config, logger *errors.Logger) (*ObservabilityManager, error) {
	om := &ObservabilityManager{
		config:     obsConfig,
		fullConfig: fullConfig,
		logger:     logger,
	}
	if !obsConfig.Enabled {
		return om, nil
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if err := om.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := om.initMetrics(); err != nil {
		_ = om.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return om, nil
}

// initResource creates the OpenTelemetry resource shared by traces and metrics
func (om *ObservabilityManager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.getServiceInstanceID()),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	om.resource = res
	return nil
}

// initTracing sets up OpenTelemetry tracing
func (om *ObservabilityManager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	if om.config.ConsoleOutput {
		opts := []stdouttrace.Option{}
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exporter, err = stdouttrace.New(opts...)
	} else if om.otlpEnabled() {
		exporter, err = om.createOTLPExporter()
	} else {
		exporter = &noOpSpanExporter{}
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)

	return nil
}

// initMetrics sets up the meter provider and the custom instruments
func (om *ObservabilityManager) initMetrics() error {
	readers, err := om.metricReaders()
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	om.metrics, err = newMetrics(mp.Meter(om.config.ServiceName))
	return err
}

// metricReaders returns one reader per configured sink: console, OTLP and
// Prometheus. With none configured a manual reader keeps instruments valid.
func (om *ObservabilityManager) metricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	interval := om.getMetricsCollectionInterval()

	if om.config.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.otlpEnabled() {
		exporter, err := otlpmetrichttp.New(context.Background(), om.otlpMetricOptions()...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.Prometheus.Enabled {
		reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, err
		}
		readers = append(readers, reader)
		if srv := StartPrometheusServer(mux, om.config.Prometheus.Port, om.logger); srv != nil {
			om.prometheusServer = srv
			om.shutdownFuncs = append(om.shutdownFuncs, srv.Shutdown)
		}
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}
	return readers, nil
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	return otelhttp.NewMiddleware(
		om.config.ServiceName,
		otelhttp.WithTracerProvider(om.tracerProvider),
		otelhttp.WithMeterProvider(om.meterProvider),
	)
}

// Tracer returns a tracer for the service
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om == nil || !om.config.Enabled {
		return noop.NewTracerProvider().Tracer(name)
	}
	return otel.Tracer(name)
}

// Shutdown flushes and stops all observability components
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	var errs []error
	for i := len(om.shutdownFuncs) - 1; i >= 0; i-- {
		if err := om.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	om.shutdownFuncs = nil
	return stderrors.Join(errs...)
}

// No-op exporter for when neither console nor OTLP output is configured
type noOpSpanExporter struct{}

func (n *noOpSpanExporter) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	return nil
}

func (n *noOpSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (om *ObservabilityManager) otlpEnabled() bool {
	return om.fullConfig != nil && om.fullConfig.Observability.OTLP.Enabled
}

func (om *ObservabilityManager) createOTLPExporter() (trace.SpanExporter, error) {
	otlp := om.fullConfig.Observability.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

func (om *ObservabilityManager) otlpMetricOptions() []otlpmetrichttp.Option {
	otlp := om.fullConfig.Observability.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
	if otlp.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlp.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
	}
	return opts
}

// getServiceInstanceID returns the service instance ID from config or a default
func (om *ObservabilityManager) getServiceInstanceID() string {
	if om.fullConfig != nil && om.fullConfig.Observability.ServiceInstance != "" {
		return om.fullConfig.Observability.ServiceInstance
	}
	return "resumatch-1"
}

// getMetricsCollectionInterval returns the configured metrics collection interval
func (om *ObservabilityManager) getMetricsCollectionInterval() time.Duration {
	if om.fullConfig != nil && om.fullConfig.Observability.Metrics.CollectionInterval > 0 {
		return om.fullConfig.Observability.Metrics.CollectionInterval
	}
	return 15 * time.Second
}
