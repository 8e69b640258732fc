package observability

import (
	"context"
	"os"

	"issuereport/internal/config"
	contextutils "issuereport/internal/utils"

	autosdk "go.opentelemetry.io/auto/sdk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// SetupObservability builds the logger and, when enabled, installs the global
// tracer and meter providers. A non-empty serviceName overrides cfg.ServiceName.
// Disabled signals come back as nil providers; the logger is never nil.
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName string) (trace.TracerProvider, *metric.MeterProvider, *Logger, error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	// The OTLP exporters and otelzap read the service identity from the environment
	for key, value := range map[string]string{
		"OTEL_SERVICE_NAME":    cfg.ServiceName,
		"OTEL_SERVICE_VERSION": cfg.ServiceVersion,
	} {
		if err := os.Setenv(key, value); err != nil {
			return nil, nil, nil, contextutils.WrapErrorf(err, "failed to set %s", key)
		}
	}

	logger := NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	if cfg.EnableLogging {
		logger = NewLoggerWithLevel(cfg, ParseLevel(cfg.LogLevel))
	}

	var tp trace.TracerProvider
	if cfg.EnableTracing {
		var err error
		if tp, err = setupTracing(cfg, logger); err != nil {
			return nil, nil, logger, err
		}
	}

	var mp *metric.MeterProvider
	if cfg.EnableMetrics {
		var err error
		if mp, err = InitMetrics(cfg); err != nil {
			return tp, nil, logger, contextutils.WrapError(err, "failed to initialize metrics")
		}
		otel.SetMeterProvider(mp)
		logger.Info(context.Background(), "Metrics enabled", map[string]interface{}{"service_name": cfg.ServiceName})
	}

	return tp, mp, logger, nil
}

// setupTracing installs the tracer provider and propagators. With UseAutoSDK the
// spans go to an eBPF auto-instrumentation agent instead of the OTLP exporter.
func setupTracing(cfg *config.OpenTelemetryConfig, logger *Logger) (trace.TracerProvider, error) {
	var (
		tp  trace.TracerProvider
		sdk = "standard"
	)
	if cfg.UseAutoSDK {
		tp = autosdk.TracerProvider()
		sdk = "auto"
	} else {
		var err error
		if tp, err = InitStandardTracing(cfg); err != nil {
			return nil, contextutils.WrapError(err, "failed to initialize tracing")
		}
	}
	otel.SetTracerProvider(tp)

	if err := InitTracing(cfg); err != nil {
		return nil, contextutils.WrapError(err, "failed to install propagators")
	}
	InitGlobalTracer()

	logger.Info(context.Background(), "Tracing enabled", map[string]interface{}{
		"service_name": cfg.ServiceName,
		"sdk":          sdk,
	})
	return tp, nil
}
