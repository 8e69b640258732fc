package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "issuereport/internal/utils"
)

const tracerName = "issue-report"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Fallback to default tracer if not initialized
		globalTracer = otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceIssueFunction starts a new span for an issue submission service function.
func TraceIssueFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "issue", functionName, attributes...)
}

// TraceEmailFunction starts a new span for a mail transport function.
func TraceEmailFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "email", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// FinishSpan ends span and marks it failed when *errPtr is set. Application
// errors also tag the span with their code and severity.
// Use with a named error return: `defer observability.FinishSpan(span, &err)`
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	defer span.End()

	if errPtr == nil || *errPtr == nil {
		return
	}
	err := *errPtr

	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		span.SetAttributes(
			attribute.String("error.code", string(appErr.Code)),
			attribute.String("error.severity", string(appErr.Severity)),
		)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AttributeOperator returns a tracing attribute for the report's operator code.
func AttributeOperator(operator string) attribute.KeyValue {
	return attribute.String("issue.operator", operator)
}

// AttributeIssueType returns a tracing attribute for the report's issue type.
func AttributeIssueType(issueType string) attribute.KeyValue {
	return attribute.String("issue.type", issueType)
}

// AttributeTicketNumber returns a tracing attribute for a generated ticket number.
func AttributeTicketNumber(ticket string) attribute.KeyValue {
	return attribute.String("issue.ticket_number", ticket)
}

// AttributeAttachmentCount returns a tracing attribute for the number of uploaded files.
func AttributeAttachmentCount(n int) attribute.KeyValue {
	return attribute.Int("issue.attachment_count", n)
}

// AttributeEmailProvider returns a tracing attribute for the mail transport in use.
func AttributeEmailProvider(provider string) attribute.KeyValue {
	return attribute.String("email.provider", provider)
}
