// Package observability bundles the logger, tracer and metrics handed to
// every module.
package observability

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
}

type Provider struct {
	Logger         *slog.Logger
	TracerProvider trace.TracerProvider
}

type Registry struct {
	Tracer     trace.Tracer
	Metrics    Metrics
	Prometheus *prometheus.Registry
}

type Observability struct {
	Provider *Provider
	Registry *Registry
}

// Init builds a JSON logger on stdout, a tracer from the global otel
// provider and a private prometheus registry.
func Init(cfg Config) Observability {
	return build(cfg, os.Stdout, otel.GetTracerProvider())
}

// NewNoop is used by tests and tools that must not emit anything.
func NewNoop() Observability {
	obs := build(Config{ServiceName: "test"}, io.Discard, noop.NewTracerProvider())
	obs.Registry.Metrics = NewNoopMetrics()
	return obs
}

func build(cfg Config, out io.Writer, tp trace.TracerProvider) Observability {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}))
	if cfg.ServiceName != "" {
		logger = logger.With(slog.String("service", cfg.ServiceName))
	}
	if cfg.Environment != "" {
		logger = logger.With(slog.String("env", cfg.Environment))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Provider: &Provider{Logger: logger, TracerProvider: tp},
		Registry: &Registry{
			Tracer:     tp.Tracer(cfg.ServiceName),
			Metrics:    NewPrometheusMetrics(reg),
			Prometheus: reg,
		},
	}
}

// MetricsHandler serves the private registry in the prometheus text format.
func (o Observability) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(o.Registry.Prometheus, promhttp.HandlerOpts{})
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type correlationKey struct{}

// WithCorrelationID stores the inbound message correlation id on ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the attribute logged next to every operation.
func CorrelationID(ctx context.Context) slog.Attr {
	id, _ := ctx.Value(correlationKey{}).(string)
	return slog.String("correlation_id", id)
}

// CorrelationIDValue returns the raw correlation id, or "" when none is set.
func CorrelationIDValue(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
