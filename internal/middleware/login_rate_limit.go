package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const loginRateWindow = time.Minute

// LoginRateLimit limits login attempts per account or IP using Redis if
// available. The counter and its expiry are bound in one pipeline, so a
// counter can never survive its window.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			UsernameOrEmail string `json:"usernameOrEmail"`
		}
		_ = c.BodyParser(&req)
		account := strings.TrimSpace(req.UsernameOrEmail)
		if account == "" {
			account = c.IP()
		}
		key := "rl:login:" + account

		pipe := cache.TxPipeline()
		incr := pipe.Incr(c.UserContext(), key)
		pipe.ExpireNX(c.UserContext(), key, loginRateWindow)
		if _, err := pipe.Exec(c.UserContext()); err != nil {
			return c.Next() // fail-open on cache errors
		}
		if incr.Val() > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}
