package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/waste3d/courseforge/internal/transport/http/response"
)

type RateLimiter struct {
	redisClient *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{redisClient: client}
}

// Limit пропускает не больше limit запросов с одного IP за окно.
// Без redis лимит не применяется.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.redisClient == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, c.ClientIP())

		count, err := rl.redisClient.Incr(c, key).Result()
		if err != nil {
			c.Next()
			return
		}

		// Первый запрос в окне ставит время жизни ключу
		if count == 1 {
			rl.redisClient.Expire(c, key, window)
		}

		if count > int64(limit) {
			ttl, _ := rl.redisClient.TTL(c, key).Result()
			c.Header("Retry-After", fmt.Sprintf("%.0f", ttl.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Error:     "too many requests",
				Code:      "rate_limited",
				Retryable: true,
			})
			return
		}
		c.Next()
	}
}
