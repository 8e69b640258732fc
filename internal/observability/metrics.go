package observability

import (
	"context"

	"issuereport/internal/config"
	contextutils "issuereport/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	// Set up resource attributes
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otel resource: %w", err)
	}

	// Set up exporter
	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	// Set up meter provider
	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// IssueMetrics records submission outcomes. Instruments come from the global meter
// provider, so they are no-ops until SetupObservability installs a real one.
type IssueMetrics struct {
	submitted otelmetric.Int64Counter
	failed    otelmetric.Int64Counter
}

// NewIssueMetrics creates the issues.submitted and issues.failed counters.
func NewIssueMetrics() (*IssueMetrics, error) {
	meter := otel.Meter(tracerName)

	submitted, err := meter.Int64Counter("issues.submitted",
		otelmetric.WithDescription("Issue reports relayed to the support mailbox"),
		otelmetric.WithUnit("{issue}"),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create issues.submitted counter: %w", err)
	}

	failed, err := meter.Int64Counter("issues.failed",
		otelmetric.WithDescription("Issue reports rejected by validation or the mail transport"),
		otelmetric.WithUnit("{issue}"),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create issues.failed counter: %w", err)
	}

	return &IssueMetrics{submitted: submitted, failed: failed}, nil
}

// RecordSubmitted counts a successfully relayed report.
func (m *IssueMetrics) RecordSubmitted(ctx context.Context, operator, issueType string) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("operator", operator),
		attribute.String("issue_type", issueType),
	))
}

// RecordFailed counts a report that was not relayed, tagged with the error code.
func (m *IssueMetrics) RecordFailed(ctx context.Context, operator, issueType string, code contextutils.ErrorCode) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("operator", operator),
		attribute.String("issue_type", issueType),
		attribute.String("error_code", string(code)),
	))
}
