package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jeezpay/jeezpay/internal/identity"
)

// OTPRateLimit limits OTP requests per phone (falling back to client IP)
// using Redis. Without Redis or on cache errors it fails open.
func OTPRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Phone string `json:"phone"`
		}
		_ = c.BodyParser(&req)
		// Key on the canonical phone so format variants share one bucket.
		key := identity.NormalizePhone(req.Phone)
		if key == "" {
			key = c.IP()
		}
		counter := "rl:otp:" + key
		cnt, err := cache.Incr(c.UserContext(), counter).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), counter, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many OTP requests, try again later")
		}
		return c.Next()
	}
}
