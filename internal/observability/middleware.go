package observability

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "issuereport/internal/utils"
)

// TicketNumberKey is the gin context key handlers set once a ticket number is
// issued. The request span picks it up as issue.ticket_number.
const TicketNumberKey = "issue.ticket_number"

// GinMiddleware opens a server span per request and continues incoming traces
func GinMiddleware(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, opts...)
}

// TracingMiddleware returns GinMiddleware followed by SpanOutcomeMiddleware.
// Register both with router.Use(TracingMiddleware(name)...).
func TracingMiddleware(serviceName string, opts ...otelgin.Option) []gin.HandlerFunc {
	return []gin.HandlerFunc{GinMiddleware(serviceName, opts...), SpanOutcomeMiddleware()}
}

// SpanOutcomeMiddleware annotates the request span after the handlers ran:
// route, request ID and ticket number always, error details for 4xx and 5xx.
// It must be registered after GinMiddleware so the server span is still open.
func SpanOutcomeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		annotateRequestSpan(span, c)
	}
}

func annotateRequestSpan(span trace.Span, c *gin.Context) {
	if route := c.FullPath(); route != "" {
		span.SetAttributes(attribute.String("http.route", route))
	}
	if requestID := contextutils.GetRequestIDFromContext(c.Request.Context()); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	if ticket := c.GetString(TicketNumberKey); ticket != "" {
		span.SetAttributes(AttributeTicketNumber(ticket))
	}

	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		return
	}

	appErr := firstAppError(c.Errors)
	message := statusMessage(status)
	switch {
	case appErr != nil:
		message = appErr.Message
	case len(c.Errors) > 0:
		message = c.Errors.Last().Error()
	}

	span.RecordError(errors.New(message))
	span.SetStatus(codes.Error, message)
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("error.message", message),
		attribute.String("error.severity", determineErrorSeverity(status, c.Errors)),
		attribute.Bool("error.server_error", status >= http.StatusInternalServerError),
	)
	if appErr != nil {
		span.SetAttributes(
			attribute.String("error.code", string(appErr.Code)),
			attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
		)
	}
	if c.Request.ContentLength > 0 {
		span.SetAttributes(attribute.Int64("error.request_size", c.Request.ContentLength))
	}
}

func statusMessage(status int) string {
	if status >= http.StatusInternalServerError {
		return "server error"
	}
	return "client error"
}

func firstAppError(errs []*gin.Error) *contextutils.AppError {
	for _, ginErr := range errs {
		var appErr *contextutils.AppError
		if contextutils.AsError(ginErr.Err, &appErr) {
			return appErr
		}
	}
	return nil
}

// determineErrorSeverity prefers the severity of an attached AppError and falls
// back to the status class.
func determineErrorSeverity(statusCode int, errs []*gin.Error) string {
	if appErr := firstAppError(errs); appErr != nil {
		return string(appErr.Severity)
	}

	switch {
	case statusCode >= http.StatusInternalServerError:
		return string(contextutils.SeverityError)
	case statusCode >= http.StatusBadRequest:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
