// file: internal/server/middleware/ratelimit.go
// version: 1.0.0
// guid: 8a3b0e5d-2f7c-4b9a-0d4e-6c1f9a2b5e8d

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 15 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands each client IP its own token bucket. Buckets refill
// at requestsPerMinute/60 per second and idle buckets are dropped so the
// map does not grow without bound.
type IPRateLimiter struct {
	mu             sync.Mutex
	clients        map[string]*clientLimiter
	requestsPerMin int
	burst          int
}

func NewIPRateLimiter(requestsPerMinute, burst int) *IPRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		clients:        make(map[string]*clientLimiter),
		requestsPerMin: requestsPerMinute,
		burst:          burst,
	}
}

func (r *IPRateLimiter) allow(ip string) bool {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, client := range r.clients {
		if now.Sub(client.lastSeen) > limiterIdleTTL {
			delete(r.clients, key)
		}
	}

	client, ok := r.clients[ip]
	if !ok {
		client = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(r.requestsPerMin)/60.0), r.burst),
		}
		r.clients[ip] = client
	}
	client.lastSeen = now

	return client.limiter.Allow()
}

// Middleware returns a Gin middleware that enforces the configured limit.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !r.allow(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
