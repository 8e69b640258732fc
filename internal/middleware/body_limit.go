package middleware

import (
	"errors"
	"fmt"
	"net/http"

	contextutils "issuereport/internal/utils"

	"github.com/gin-gonic/gin"
)

// BodyLimitMiddleware caps the request body at maxBytes. Reads past the cap fail
// with *http.MaxBytesError, which BodyReadError maps to PAYLOAD_TOO_LARGE.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// BodyReadError maps body read failures to PAYLOAD_TOO_LARGE or INVALID_INPUT
func BodyReadError(err error) *contextutils.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodePayloadTooLarge, contextutils.SeverityWarn,
			"Request too large", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit), err)
	}
	return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeInvalidInput, contextutils.SeverityWarn,
		"Invalid request data", err.Error(), err)
}
