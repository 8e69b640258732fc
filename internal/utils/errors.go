// Package contextutils provides error handling utilities and standardized error types
// for consistent error management across the issue reporting service.
package contextutils

import (
	"context"
	"fmt"
	"strings"
)

// ErrorCode represents a standardized error code for API responses
type ErrorCode string

const (
	// Validation error codes

	// ErrorCodeInvalidInput indicates that the provided input is invalid
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingRequired indicates that a required field is missing
	ErrorCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"
	// ErrorCodeInvalidFormat indicates that the input format is invalid
	ErrorCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrorCodeValidationFailed indicates that validation has failed
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	// ErrorCodePayloadTooLarge indicates that the request body or an upload is too large
	ErrorCodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"

	// Service error codes

	// ErrorCodeServiceUnavailable indicates that the service is temporarily unavailable
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrorCodeTimeout indicates that a request has timed out
	ErrorCodeTimeout ErrorCode = "REQUEST_TIMEOUT"
	// ErrorCodeInternalError indicates an internal server error
	ErrorCodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"
	// ErrorCodeRecordNotFound indicates that a requested resource was not found
	ErrorCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// Email error codes

	// ErrorCodeEmailSendFailed indicates that the mail transport rejected or failed the send
	ErrorCodeEmailSendFailed ErrorCode = "EMAIL_SEND_FAILED"
	// ErrorCodeEmailNotConfigured indicates that no usable mail transport is configured
	ErrorCodeEmailNotConfigured ErrorCode = "EMAIL_NOT_CONFIGURED"
	// ErrorCodeTemplateRender indicates that an email or page template failed to render
	ErrorCodeTemplateRender ErrorCode = "TEMPLATE_RENDER_FAILED"
)

// SeverityLevel represents the severity of an error for logging and monitoring
type SeverityLevel string

const (
	// SeverityDebug indicates debug-level errors for development
	SeverityDebug SeverityLevel = "debug"
	// SeverityInfo indicates informational errors
	SeverityInfo SeverityLevel = "info"
	// SeverityWarn indicates warning-level errors
	SeverityWarn SeverityLevel = "warn"
	// SeverityError indicates error-level issues
	SeverityError SeverityLevel = "error"
	// SeverityFatal indicates fatal errors that require immediate attention
	SeverityFatal SeverityLevel = "fatal"
)

// AppError represents a structured error with code, severity, and context
type AppError struct {
	Code     ErrorCode
	Severity SeverityLevel
	Message  string
	Details  string
	Cause    error
	// Fields holds per-field messages for validation failures, keyed by form field name.
	Fields map[string]string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is
func (e *AppError) Is(target error) bool {
	if appErr, ok := target.(*AppError); ok {
		return e.Code == appErr.Code
	}
	return false
}

// Error types for consistent error handling with associated codes and severity
var (
	ErrInvalidInput = &AppError{
		Code:     ErrorCodeInvalidInput,
		Severity: SeverityWarn,
		Message:  "Invalid input",
	}

	ErrMissingRequired = &AppError{
		Code:     ErrorCodeMissingRequired,
		Severity: SeverityWarn,
		Message:  "Missing required field",
	}

	ErrInvalidFormat = &AppError{
		Code:     ErrorCodeInvalidFormat,
		Severity: SeverityWarn,
		Message:  "Invalid format",
	}

	ErrValidationFailed = &AppError{
		Code:     ErrorCodeValidationFailed,
		Severity: SeverityWarn,
		Message:  "Validation failed",
	}

	ErrPayloadTooLarge = &AppError{
		Code:     ErrorCodePayloadTooLarge,
		Severity: SeverityWarn,
		Message:  "Payload too large",
	}

	ErrServiceUnavailable = &AppError{
		Code:     ErrorCodeServiceUnavailable,
		Severity: SeverityError,
		Message:  "Service unavailable",
	}

	ErrTimeout = &AppError{
		Code:     ErrorCodeTimeout,
		Severity: SeverityWarn,
		Message:  "Request timeout",
	}

	ErrInternalError = &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal server error",
	}

	ErrRecordNotFound = &AppError{
		Code:     ErrorCodeRecordNotFound,
		Severity: SeverityInfo,
		Message:  "Not found",
	}

	ErrEmailSendFailed = &AppError{
		Code:     ErrorCodeEmailSendFailed,
		Severity: SeverityError,
		Message:  "Failed to send email",
	}

	ErrEmailNotConfigured = &AppError{
		Code:     ErrorCodeEmailNotConfigured,
		Severity: SeverityError,
		Message:  "Email transport not configured",
	}

	ErrTemplateRender = &AppError{
		Code:     ErrorCodeTemplateRender,
		Severity: SeverityError,
		Message:  "Template rendering failed",
	}
)

// NewAppError creates a new AppError with the specified code, severity, message and details
func NewAppError(code ErrorCode, severity SeverityLevel, message, details string) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}

// NewAppErrorWithCause creates a new AppError with an underlying cause
func NewAppErrorWithCause(code ErrorCode, severity SeverityLevel, message, details string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
		Cause:    cause,
	}
}

// NewValidationError creates a VALIDATION_FAILED error carrying per-field messages.
// Details lists the fields in the order given so the plain error string stays stable.
func NewValidationError(order []string, fields map[string]string) *AppError {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		if msg, ok := fields[name]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", name, msg))
		}
	}
	return &AppError{
		Code:     ErrorCodeValidationFailed,
		Severity: SeverityWarn,
		Message:  "Validation failed",
		Details:  strings.Join(parts, "; "),
		Fields:   fields,
	}
}

// WrapError wraps an error with additional context, preserving AppError structure if possible
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, wrap it with additional details
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
			Fields:   appErr.Fields,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// WrapErrorf wraps an error with formatted context, preserving AppError structure if possible
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	// Handle %w verb for error wrapping by using fmt.Errorf
	if strings.Contains(format, "%w") {
		wrappedErr := fmt.Errorf(format, args...)

		if appErr, ok := err.(*AppError); ok {
			return &AppError{
				Code:     appErr.Code,
				Severity: appErr.Severity,
				Message:  wrappedErr.Error(),
				Details:  appErr.Error(),
				Cause:    wrappedErr,
			}
		}

		return &AppError{
			Code:     ErrorCodeInternalError,
			Severity: SeverityError,
			Message:  wrappedErr.Error(),
			Details:  err.Error(),
			Cause:    wrappedErr,
		}
	}

	context := fmt.Sprintf(format, args...)
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// ErrorWithContextf creates a new error with formatted context
func ErrorWithContextf(format string, args ...interface{}) error {
	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsError checks if an error matches a specific AppError type
func IsError(err error, target *AppError) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == target.Code
	}
	return false
}

// AsError attempts to convert an error to an AppError
func AsError(err error, target **AppError) bool {
	if appErr, ok := err.(*AppError); ok {
		*target = appErr
		return true
	}
	return false
}

// GetErrorCode returns the error code from an error if it's an AppError, otherwise returns a default code
func GetErrorCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// GetErrorSeverity returns the severity level from an error if it's an AppError, otherwise returns error
func GetErrorSeverity(err error) SeverityLevel {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Severity
	}
	return SeverityError
}

// IsRetryable reports whether the caller may reasonably resubmit after this error.
// The service itself never retries.
func IsRetryable(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		switch appErr.Code {
		case ErrorCodeTimeout, ErrorCodeServiceUnavailable, ErrorCodeEmailSendFailed:
			return appErr.Severity != SeverityFatal
		}
	}
	return false
}

// ToJSON converts an AppError to a JSON-serializable structure for API responses
func (e *AppError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     string(e.Code),
		"message":  e.Message,
		"severity": string(e.Severity),
		"error":    e.Message,
	}

	if e.Details != "" {
		result["details"] = e.Details
	}

	if len(e.Fields) > 0 {
		result["fields"] = e.Fields
	}

	result["retryable"] = IsRetryable(e)

	if e.Cause != nil {
		switch e.Severity {
		case SeverityError, SeverityFatal:
			result["cause"] = e.Cause.Error()
		}
	}

	return result
}

// ContextKey represents a context key type for passing values through context
type ContextKey string

const (
	// RequestIDKey is used to store the per-request correlation ID in context
	RequestIDKey ContextKey = "requestID"
)

// GetRequestIDFromContext extracts the request ID from context, returning "" if not found
func GetRequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID returns a new context with the request ID set
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}
