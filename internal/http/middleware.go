package http

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/inkforge/contentflow/internal/config"
)

// apiKeyAuth enforces bearer API keys on the workflow routes. With no keys
// configured the check is disabled, which keeps local development friction
// free.
func apiKeyAuth(cfg *config.Settings) gin.HandlerFunc {
	keys := make(map[string]struct{}, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if _, ok := keys[token]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Set("api_key", token)
		c.Next()
	}
}

// rateLimit applies a token-bucket limit per API key, falling back to the
// client IP for unauthenticated requests.
func rateLimit(cfg *config.Settings) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)
	limit := rate.Limit(float64(cfg.RateLimitRequests) / float64(cfg.RateLimitWindow))
	burst := cfg.RateLimitRequests

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters[key] = l
		}
		return l
	}

	return func(c *gin.Context) {
		key := c.GetString("api_key")
		if key == "" {
			key = c.ClientIP()
		}
		if !limiterFor(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
