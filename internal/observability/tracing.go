package observability

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"oauthbff-go/internal/config"
)

// TracingManager manages OpenTelemetry tracing
type TracingManager struct {
	logger   *zap.SugaredLogger
	config   config.TracingConfig
	tracer   oteltrace.Tracer
	provider *trace.TracerProvider
	enabled  bool
}

// NewTracingManager creates a new tracing manager
func NewTracingManager(logger *zap.SugaredLogger, cfg config.TracingConfig) (*TracingManager, error) {
	tm := &TracingManager{
		logger:  logger,
		config:  cfg,
		enabled: cfg.Enabled,
	}

	if !cfg.Enabled {
		logger.Info("OpenTelemetry tracing disabled")
		return tm, nil
	}

	if err := tm.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	logger.Infow("OpenTelemetry tracing initialized",
		"service_name", cfg.ServiceName,
		"otlp_endpoint", cfg.OTLPEndpoint,
		"sample_rate", cfg.SampleRate)

	return tm, nil
}

// initTracing initializes OpenTelemetry tracing
func (tm *TracingManager) initTracing() error {
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(tm.config.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(tm.config.ServiceName),
			semconv.ServiceVersionKey.String(tm.config.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	tm.provider = trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(tm.config.SampleRate)),
	)

	otel.SetTracerProvider(tm.provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	tm.tracer = otel.Tracer(tm.config.ServiceName)

	return nil
}

// Close shuts down the tracing provider
func (tm *TracingManager) Close(ctx context.Context) error {
	if !tm.enabled || tm.provider == nil {
		return nil
	}

	tm.logger.Info("Shutting down OpenTelemetry tracing")
	return tm.provider.Shutdown(ctx)
}

// TraceProxyCall creates a span for a proxied downstream call
func (tm *TracingManager) TraceProxyCall(ctx context.Context, clientName, method string) (context.Context, oteltrace.Span) {
	if !tm.enabled {
		return ctx, oteltrace.SpanFromContext(ctx)
	}

	return tm.tracer.Start(ctx, "proxy.call",
		oteltrace.WithAttributes(
			attribute.String("proxy.client", clientName),
			attribute.String("proxy.method", method),
		),
	)
}

// TraceTokenRequest creates a span for token acquisition
func (tm *TracingManager) TraceTokenRequest(ctx context.Context, clientName string) (context.Context, oteltrace.Span) {
	if !tm.enabled {
		return ctx, oteltrace.SpanFromContext(ctx)
	}

	return tm.tracer.Start(ctx, "oauth.token",
		oteltrace.WithAttributes(
			attribute.String("oauth.client", clientName),
		),
	)
}

// SetSpanError marks the current span as having an error
func (tm *TracingManager) SetSpanError(ctx context.Context, err error) {
	if !tm.enabled {
		return
	}

	span := oteltrace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("error", "true"))
	span.SetAttributes(attribute.String("error.message", err.Error()))
}

// HTTPMiddleware returns middleware that adds tracing to HTTP requests
func (tm *TracingManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !tm.enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			spanName := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
			ctx, span := tm.tracer.Start(ctx, spanName,
				oteltrace.WithAttributes(
					semconv.HTTPMethodKey.String(r.Method),
					semconv.HTTPTargetKey.String(r.URL.Path),
					semconv.HTTPHostKey.String(r.Host),
					semconv.HTTPUserAgentKey.String(r.UserAgent()),
				),
			)
			defer span.End()

			ww := &tracingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

			next.ServeHTTP(ww, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPStatusCodeKey.Int(ww.statusCode))
			if ww.statusCode >= 400 {
				span.SetAttributes(attribute.String("error", "true"))
			}
		})
	}
}

// tracingResponseWriter wraps http.ResponseWriter to capture status code for tracing
type tracingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *tracingResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
