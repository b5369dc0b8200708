package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/utils"
)

// RateLimitMiddleware enforces a fixed per-IP request budget per minute via
// redis INCR+EXPIRE. Redis being down fails open: a broken limiter should
// not take the API with it.
type RateLimitMiddleware struct {
	rdb       *redis.Client
	log       *logger.Logger
	enabled   bool
	perMinute int
}

func NewRateLimitMiddleware(rdb *redis.Client, baseLog *logger.Logger) *RateLimitMiddleware {
	log := baseLog.With("middleware", "RateLimitMiddleware")
	return &RateLimitMiddleware{
		rdb:       rdb,
		log:       log,
		enabled:   utils.GetEnvAsBool("RATE_LIMIT_ENABLED", true, log),
		perMinute: utils.GetEnvAsInt("RATE_LIMIT_PER_MINUTE", 60, log),
	}
}

func (m *RateLimitMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled || m.rdb == nil {
			c.Next()
			return
		}

		window := time.Now().UTC().Format("200601021504")
		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), window)

		ctx := c.Request.Context()
		count, err := m.rdb.Incr(ctx, key).Result()
		if err != nil {
			m.log.Warn("Rate limit check failed, allowing request", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := m.rdb.Expire(ctx, key, time.Minute).Err(); err != nil {
				m.log.Warn("Rate limit expiry failed", "key", key, "error", err)
			}
		}

		if count > int64(m.perMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "rate limit exceeded", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}
