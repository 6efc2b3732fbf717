package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jakestrouse00/mongodriver/pkg/metrics"
)

// ClaimsKey is the gin context key AuthMiddleware stores token claims under.
const ClaimsKey = "claims"

// limiterKey picks the rate-limit bucket: the authenticated subject when
// AuthMiddleware ran first, otherwise the client IP.
func limiterKey(c *gin.Context) string {
	if v, ok := c.Get(ClaimsKey); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// RateLimitMiddleware returns a Gin middleware enforcing an in-memory
// token bucket per key. rps = allowed events per second, burst = maximum
// tokens in bucket. Each call gets its own set of buckets.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	var limiters sync.Map // map[string]*rate.Limiter
	return func(c *gin.Context) {
		v, _ := limiters.LoadOrStore(limiterKey(c), rate.NewLimiter(rate.Limit(rps), burst))
		lim := v.(*rate.Limiter)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
