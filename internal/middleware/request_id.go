package middleware

import (
	contextutils "issuereport/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestIDMiddleware reuses an incoming X-Request-ID or generates one, stores it
// in the request context and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(contextutils.WithRequestID(c.Request.Context(), requestID))
		c.Set(string(contextutils.RequestIDKey), requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}
