package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"issuereport/internal/observability"
	contextutils "issuereport/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryMiddleware recovers panics into the standard error body.
// Requests are never retried.
func ErrorRecoveryMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				stackTrace := string(debug.Stack())

				var panicErr error
				if e, ok := rec.(error); ok {
					panicErr = e
				} else {
					panicErr = contextutils.ErrorWithContextf("panic: %v", rec)
				}

				logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
					"method":      c.Request.Method,
					"path":        c.Request.URL.Path,
					"stack_trace": stackTrace,
				})

				appErr := contextutils.NewAppErrorWithCause(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityFatal,
					"Internal server error",
					"A panic occurred while processing the request",
					contextutils.WrapError(panicErr, "panic"),
				)

				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stackTrace)
				}

				HandleAppError(c, appErr)
				c.Abort()
			}
		}()

		c.Next()
	}
}

// HandleAppError handles any AppError and sends appropriate HTTP response
func HandleAppError(c *gin.Context, err error) {
	if appErr, ok := err.(*contextutils.AppError); ok {
		StandardizeAppError(c, appErr)
	} else {
		// Fallback for non-AppError types
		StandardizeHTTPError(c, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

// AbortWithAppError writes err with a fixed status and aborts the chain.
// Non-AppErrors are reported as internal errors.
func AbortWithAppError(c *gin.Context, status int, err error) {
	var appErr *contextutils.AppError
	if !contextutils.AsError(err, &appErr) {
		appErr = contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInternalError,
			contextutils.SeverityError,
			"Internal server error",
			err.Error(),
			err,
		)
	}
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(status, appErr.ToJSON())
}

// StandardizeAppError sends a structured error response using AppError
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	statusCode := mapErrorCodeToHTTPStatus(err.Code)
	c.JSON(statusCode, err.ToJSON())
}

// StandardizeHTTPError creates consistent HTTP error responses with structured error information
func StandardizeHTTPError(c *gin.Context, _ int, message, details string) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeInternalError,
		contextutils.SeverityError,
		message,
		details,
	)

	StandardizeAppError(c, appErr)
}

// ServiceUnavailable sends a 503 Service Unavailable error with a standardized payload
func ServiceUnavailable(c *gin.Context, msg string) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeServiceUnavailable,
		contextutils.SeverityError,
		msg,
		"",
	)
	StandardizeAppError(c, appErr)
}

// mapErrorCodeToHTTPStatus maps AppError codes to appropriate HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat, contextutils.ErrorCodeValidationFailed:
		return http.StatusBadRequest

	case contextutils.ErrorCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeEmailNotConfigured:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeTimeout:
		return http.StatusRequestTimeout

	case contextutils.ErrorCodeEmailSendFailed:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
