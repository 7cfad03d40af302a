// file: internal/server/middleware/requestid.go
// version: 1.0.0
// guid: 9b4c1f6e-3a8d-4c0b-1e5f-7d2a0b3c6f9e

package middleware

import (
	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"
)

// RequestIDHeader is the response header carrying the per-request ULID.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a ULID so log lines and responses can
// be correlated. An inbound X-Request-ID is trusted and passed through.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
