package middleware

import (
	"math"
	"strconv"
	"time"

	"boutique/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultRateLimitPeriod = time.Minute
	DefaultRateLimitCount  = 5
)

// RateLimiter counts requests per client IP in fixed windows kept in Redis.
// A nil client disables limiting. Redis failures let the request through.
func RateLimiter(client redis.Cmdable, scope string, limit int64, period time.Duration) fiber.Handler {
	if limit <= 0 {
		limit = DefaultRateLimitCount
	}
	if period <= 0 {
		period = DefaultRateLimitPeriod
	}
	return func(c *fiber.Ctx) error {
		if client == nil {
			return c.Next()
		}

		ctx := c.UserContext()
		key := "rate_limit:" + scope + ":" + c.IP()
		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logging.FromCtx(c).Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(ctx, key, period).Err(); err != nil {
				logging.FromCtx(c).Warn("rate limiter expire failed", zap.Error(err))
			}
		}

		if count > limit {
			c.Set(fiber.HeaderRetryAfter, retryAfter(client, c, key, period))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "too many requests",
			})
		}
		return c.Next()
	}
}

func retryAfter(client redis.Cmdable, c *fiber.Ctx, key string, period time.Duration) string {
	ttl, err := client.TTL(c.UserContext(), key).Result()
	if err != nil || ttl <= 0 {
		ttl = period
	}
	return strconv.Itoa(int(math.Ceil(ttl.Seconds())))
}
