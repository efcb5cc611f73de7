package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yukikurage/team-checklist-api/internal/constants"
)

// RequestID tags every request with an id, reusing the client's X-Request-ID
// when it is a valid UUID, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyRequestID)
}

// LogErrors writes one log line for every request that ended with a 5xx status
func LogErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if status := c.Writer.Status(); status >= 500 {
			log.Printf("request_id=%s method=%s path=%s status=%d latency=%s errors=%q",
				GetRequestID(c), c.Request.Method, c.FullPath(), status, time.Since(start), c.Errors.String())
		}
	}
}
