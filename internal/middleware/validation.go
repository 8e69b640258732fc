package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"issuereport/internal/observability"
	contextutils "issuereport/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RequestValidationMiddleware checks JSON request bodies against the schema
// documented for the route. Multipart and form bodies pass through untouched.
// Rejected requests get failureStatus with the standard error body.
func RequestValidationMiddleware(logger *observability.Logger, schemaLoader *SchemaLoader, failureStatus int) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch {
			c.Next()
			return
		}
		if !strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
			c.Next()
			return
		}

		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation")
		defer span.End()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		schemaName := schemaLoader.DetermineRequestSchemaFromPath(path, method)
		span.SetAttributes(
			attribute.String("http.route", path),
			attribute.String("schema.name", schemaName),
		)
		if schemaName == "" {
			c.Next()
			return
		}

		body, err := c.GetRawData()
		if err != nil {
			AbortWithAppError(c, failureStatus, BodyReadError(err))
			return
		}
		// Restore the request body so handlers can read it
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var requestData interface{}
		if err := json.Unmarshal(body, &requestData); err != nil {
			AbortWithAppError(c, failureStatus, contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInvalidFormat, contextutils.SeverityWarn,
				"Invalid request data", "request body is not valid JSON", err))
			return
		}

		if err := schemaLoader.ValidateData(requestData, schemaName); err != nil {
			span.SetAttributes(attribute.Bool("schema.valid", false))
			logger.Warn(ctx, "Request validation failed", map[string]interface{}{
				"method":      method,
				"path":        path,
				"schema_name": schemaName,
				"error":       err.Error(),
			})
			AbortWithAppError(c, failureStatus, err)
			return
		}

		span.SetAttributes(attribute.Bool("schema.valid", true))
		c.Next()
	}
}

// ResponseValidationMiddleware checks 2xx JSON responses against the documented
// response schema and logs mismatches. The response is always written unchanged.
func ResponseValidationMiddleware(logger *observability.Logger, schemaLoader *SchemaLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		originalWriter := c.Writer
		responseWriter := &responseCaptureWriter{
			ResponseWriter: originalWriter,
			body:           &bytes.Buffer{},
		}
		c.Writer = responseWriter

		c.Next()

		c.Writer = originalWriter
		statusCode := responseWriter.Status()
		defer func() {
			if !originalWriter.Written() {
				originalWriter.WriteHeader(statusCode)
			}
			_, _ = originalWriter.Write(responseWriter.body.Bytes())
		}()

		if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
			return
		}
		if !strings.HasPrefix(originalWriter.Header().Get("Content-Type"), gin.MIMEJSON) {
			return
		}

		path := c.FullPath()
		schemaName := schemaLoader.DetermineSchemaFromPath(path, c.Request.Method)
		if schemaName == "" {
			return
		}

		var responseData interface{}
		if err := json.Unmarshal(responseWriter.body.Bytes(), &responseData); err != nil {
			logger.Error(c.Request.Context(), "Failed to parse JSON response", err, map[string]interface{}{
				"method": c.Request.Method,
				"path":   path,
			})
			return
		}

		if err := schemaLoader.ValidateData(responseData, schemaName); err != nil {
			logger.Error(c.Request.Context(), "Response validation failed", err, map[string]interface{}{
				"method":      c.Request.Method,
				"path":        path,
				"schema_name": schemaName,
			})
		}
	}
}

// responseCaptureWriter buffers the response body and status
type responseCaptureWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseCaptureWriter) WriteHeader(statusCode int) {
	w.status = statusCode
}

func (w *responseCaptureWriter) WriteHeaderNow() {}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *responseCaptureWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *responseCaptureWriter) Written() bool {
	return w.status != 0
}

func (w *responseCaptureWriter) Size() int {
	return w.body.Len()
}

func (w *responseCaptureWriter) Status() int {
	if w.status != 0 {
		return w.status
	}
	return http.StatusOK
}
