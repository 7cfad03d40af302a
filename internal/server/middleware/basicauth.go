// file: internal/server/middleware/basicauth.go
// version: 1.0.0
// guid: 7f2a9d4c-1e6b-4a8f-9c3d-5b0e8f1a4d7c

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/abs-meta/internal/config"
)

// BasicAuth returns a Gin middleware that enforces HTTP Basic Authentication
// when basic auth is enabled in the configuration. Health and metrics
// endpoints are exempt so probes and scrapers keep working. The config
// snapshot is taken once per request so credentials stay consistent
// through a concurrent reload.
func BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.App()
		if !cfg.BasicAuthEnabled {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="abs-meta"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.BasicAuthUsername)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.BasicAuthPassword)) == 1

		if !userMatch || !passMatch {
			c.Header("WWW-Authenticate", `Basic realm="abs-meta"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
