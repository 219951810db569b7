package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/leancanvas-backend/internal/http/response"
	"github.com/yungbote/leancanvas-backend/internal/observability"
	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
	"github.com/yungbote/leancanvas-backend/internal/platform/ratelimit"
)

// RateLimit rejects callers that exceed the limiter for scope, keyed by client
// IP. Limiter errors let the request through.
func RateLimit(log *logger.Logger, limiter ratelimit.Limiter, m *observability.Metrics, scope string) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("middleware", "RateLimit", "scope", scope)
	return func(c *gin.Context) {
		ip := ClientIP(c.Request)
		d, err := limiter.Allow(c.Request.Context(), scope+":"+ip)
		if err != nil {
			log.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !d.Allowed {
			m.IncRateLimited(scope)
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			response.AbortWithError(c, http.StatusTooManyRequests, "rate_limited",
				fmt.Errorf("too many attempts, retry in %d seconds", secs))
			return
		}
		c.Next()
	}
}

// ClientIP prefers the first X-Forwarded-For entry, then X-Real-IP, then the
// socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
