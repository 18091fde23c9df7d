// Package monitoring wires OpenTelemetry metrics with a Prometheus exporter.
package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	meterProvider        *sdkmetric.MeterProvider
	requestCounter       metric.Int64Counter
	latencyHist          metric.Float64Histogram
	businessEventCounter metric.Int64Counter
	dbLatencyHist        metric.Float64Histogram
	initOnce             sync.Once
	httpHandler          http.Handler
)

// Config captures the minimal setup parameters for the service.
type Config struct {
	ServiceName   string
	ResourceAttrs map[string]string
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and runtime instrumentation.
// The returned function shuts the meter provider down.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "quality-server"
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	var initErr error

	initOnce.Do(func() {
		exp, err := prometheus.New(prometheus.WithoutUnits())
		if err != nil {
			initErr = err
			return
		}

		res, err := resource.Merge(
			resource.Default(),
			resource.NewSchemaless(attrs...),
		)
		if err != nil {
			initErr = err
			return
		}

		meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(meterProvider)
		httpHandler = promhttp.Handler()

		meter := meterProvider.Meter(cfg.ServiceName)

		requestCounter, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests processed"),
		)
		if err != nil {
			initErr = err
			return
		}

		latencyHist, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("HTTP request duration in seconds"),
		)
		if err != nil {
			initErr = err
			return
		}

		businessEventCounter, err = meter.Int64Counter(
			"business_events_total",
			metric.WithDescription("Domain events such as cleared rules and reindex triggers"),
		)
		if err != nil {
			initErr = err
			return
		}

		dbLatencyHist, err = meter.Float64Histogram(
			"db_operation_duration_seconds",
			metric.WithDescription("Datastore operation duration in seconds"),
		)
		if err != nil {
			initErr = err
			return
		}

		initErr = runtime.Start(runtime.WithMeterProvider(meterProvider))
	})

	if initErr != nil {
		return nil, initErr
	}

	return func(ctx context.Context) error {
		if meterProvider != nil {
			return meterProvider.Shutdown(ctx)
		}
		return nil
	}, nil
}

// Handler returns the Prometheus /metrics handler.
func Handler() http.Handler {
	if httpHandler != nil {
		return httpHandler
	}
	return http.NotFoundHandler()
}

// HTTPMetricsMiddleware records request counts and latency.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCounter == nil || latencyHist == nil {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.Int("http.status_code", recorder.status),
		}
		requestCounter.Add(r.Context(), 1, metric.WithAttributes(attrs...))
		latencyHist.Record(r.Context(), time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.status = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

// RecordBusinessEvent records domain KPIs like cleared rules or reindex triggers.
func RecordBusinessEvent(ctx context.Context, action string, success bool) {
	if businessEventCounter == nil {
		return
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}

	businessEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("business.action", action),
		attribute.String("business.outcome", outcome),
	))
}

// RecordDBLatency records datastore read/write duration.
func RecordDBLatency(ctx context.Context, datastore, operation string, duration time.Duration) {
	if dbLatencyHist == nil {
		return
	}

	dbLatencyHist.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("db.name", datastore),
		attribute.String("db.operation", operation),
	))
}
