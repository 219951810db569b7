package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

const defaultSampleRatio = 0.1

// TracingConfig controls request tracing. With no Endpoint, spans go to stdout.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider once. The returned shutdown is
// nil when tracing is disabled.
func InitOTel(ctx context.Context, log *logger.Logger, cfg TracingConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		tp := newTracerProvider(ctx, log, cfg)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized", "service", cfg.serviceName(), "endpoint", cfg.Endpoint)
	})
	return otelShutdown
}

func newTracerProvider(ctx context.Context, log *logger.Logger, cfg TracingConfig) *sdktrace.TracerProvider {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.serviceName()),
		attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.sampleRatio()))),
		sdktrace.WithResource(res),
	}
	exporter, err := newSpanExporter(ctx, log, cfg)
	if err != nil {
		log.Warn("otel exporter init failed (continuing without export)", "error", err)
	} else {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

func newSpanExporter(ctx context.Context, log *logger.Logger, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

func (c TracingConfig) serviceName() string {
	if name := strings.TrimSpace(c.ServiceName); name != "" {
		return name
	}
	return "leancanvas-api"
}

// sampleRatio clamps to [0,1]; zero means unset.
func (c TracingConfig) sampleRatio() float64 {
	switch {
	case c.SampleRatio <= 0:
		return defaultSampleRatio
	case c.SampleRatio > 1:
		return 1
	default:
		return c.SampleRatio
	}
}

// ParseHeaders turns "key=value" pairs into exporter headers, skipping
// malformed entries.
func ParseHeaders(pairs []string) map[string]string {
	headers := map[string]string{}
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
