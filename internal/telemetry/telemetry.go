package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid telemetry configuration")

// Config controls which signals are emitted and where they go.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	EnableTracing  bool
	EnableMetrics  bool
	SampleRate     float64
}

func (c Config) validate() error {
	switch {
	case c.ServiceName == "":
		return fmt.Errorf("%w: service name is required", ErrInvalidConfig)
	case c.ServiceVersion == "":
		return fmt.Errorf("%w: service version is required", ErrInvalidConfig)
	case c.SampleRate < 0 || c.SampleRate > 1:
		return fmt.Errorf("%w: sample rate must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Telemetry owns the configured providers and their exporters. Shutdown
// flushes and releases everything that Initialize set up.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	closers        []func(context.Context) error
}

// Option overrides parts of the pipeline, mainly so tests can swap the
// OTLP exporters for in-process ones.
type Option func(*pipeline)

type pipeline struct {
	traceExporter  sdktrace.SpanExporter
	metricExporter sdkmetric.Exporter
}

// WithTraceExporter replaces the default OTLP gRPC span exporter.
func WithTraceExporter(exporter sdktrace.SpanExporter) Option {
	return func(p *pipeline) { p.traceExporter = exporter }
}

// WithMetricExporter replaces the default OTLP gRPC metric exporter.
func WithMetricExporter(exporter sdkmetric.Exporter) Option {
	return func(p *pipeline) { p.metricExporter = exporter }
}

// Initialize builds the enabled providers, installs them as the process
// globals, and wires W3C trace context propagation.
func Initialize(ctx context.Context, cfg Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var p pipeline
	for _, opt := range opts {
		opt(&p)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tel := &Telemetry{}

	if cfg.EnableTracing {
		if err := tel.setupTracing(ctx, cfg, res, p.traceExporter); err != nil {
			return nil, err
		}
	}
	if cfg.EnableMetrics {
		if err := tel.setupMetrics(ctx, cfg, res, p.metricExporter); err != nil {
			_ = tel.Shutdown(ctx)
			return nil, err
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tel, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
	)
}

func (t *Telemetry) setupTracing(ctx context.Context, cfg Config, res *resource.Resource, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		// Plaintext gRPC; the collector endpoint is expected to sit on the
		// same private network or behind a mesh that terminates TLS.
		var err error
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("create trace exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	t.tracerProvider = tp
	t.closers = append(t.closers, tp.Shutdown, exporter.Shutdown)
	return nil
}

func (t *Telemetry) setupMetrics(ctx context.Context, cfg Config, res *resource.Resource, exporter sdkmetric.Exporter) error {
	if exporter == nil {
		var err error
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("create metric exporter: %w", err)
		}
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(mp)

	t.meterProvider = mp
	t.closers = append(t.closers, mp.Shutdown, exporter.Shutdown)
	return nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Shutdown flushes and stops every provider and exporter that was created.
// All closers run even when earlier ones fail.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, closer := range t.closers {
		if err := closer(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TracerProvider returns the configured provider, or nil when tracing is
// disabled.
func (t *Telemetry) TracerProvider() *sdktrace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured provider, or nil when metrics are
// disabled.
func (t *Telemetry) MeterProvider() *sdkmetric.MeterProvider {
	return t.meterProvider
}
