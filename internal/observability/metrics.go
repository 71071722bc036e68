package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"travelwatch/internal/config"
)

type AppMetrics struct {
	authSignupCounter        metric.Int64Counter
	authLoginCounter         metric.Int64Counter
	authReqDuration          metric.Float64Histogram
	tokenValidationCounter   metric.Int64Counter
	serviceKeyCounter        metric.Int64Counter
	oauthErrorCounter        metric.Int64Counter
	oauthReqDuration         metric.Float64Histogram
	upstreamReqDuration      metric.Float64Histogram
	recordOpsCounter         metric.Int64Counter
	rateLimitDecisionCounter metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("travelwatch")
	signupCounter, err := meter.Int64Counter("auth.signup.attempts")
	if err != nil {
		return nil, err
	}
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram("auth.request.duration",
		metric.WithUnit("s"), metric.WithDescription("Duration of auth endpoint requests in seconds"))
	if err != nil {
		return nil, err
	}
	tokenValidationCounter, err := meter.Int64Counter("auth.token.validation.events")
	if err != nil {
		return nil, err
	}
	serviceKeyCounter, err := meter.Int64Counter("auth.service_key.validation.events")
	if err != nil {
		return nil, err
	}
	oauthErrorCounter, err := meter.Int64Counter("auth.oauth.errors")
	if err != nil {
		return nil, err
	}
	oauthReqDuration, err := meter.Float64Histogram("auth.oauth.request.duration",
		metric.WithUnit("s"), metric.WithDescription("Duration of identity-provider calls in seconds"))
	if err != nil {
		return nil, err
	}
	upstreamReqDuration, err := meter.Float64Histogram("upstream.request.duration",
		metric.WithUnit("s"), metric.WithDescription("Duration of external data provider calls in seconds"))
	if err != nil {
		return nil, err
	}
	recordOpsCounter, err := meter.Int64Counter("records.operations")
	if err != nil {
		return nil, err
	}
	rateLimitCounter, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authSignupCounter:        signupCounter,
		authLoginCounter:         loginCounter,
		authReqDuration:          authReqDuration,
		tokenValidationCounter:   tokenValidationCounter,
		serviceKeyCounter:        serviceKeyCounter,
		oauthErrorCounter:        oauthErrorCounter,
		oauthReqDuration:         oauthReqDuration,
		upstreamReqDuration:      upstreamReqDuration,
		recordOpsCounter:         recordOpsCounter,
		rateLimitDecisionCounter: rateLimitCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordAuthSignup(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authSignupCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogin(ctx context.Context, provider, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordTokenValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordServiceKeyValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.serviceKeyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordGoogleOAuthError(ctx context.Context, reason string) {
	m := current()
	if m == nil {
		return
	}
	m.oauthErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", "google"),
		attribute.String("reason", reason),
	))
}

func RecordGoogleOAuthRequestDuration(ctx context.Context, operation, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.oauthReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", "google"),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

func RecordUpstreamRequestDuration(ctx context.Context, upstream, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.upstreamReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("upstream", upstream),
		attribute.String("status", status),
	))
}

func RecordRecordsOperation(ctx context.Context, op, status string) {
	m := current()
	if m == nil {
		return
	}
	m.recordOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}
