package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit writes one structured log line per request. Wallet and settlement
// traffic is money movement, so the line carries enough to reconstruct who
// hit what and how it ended.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
		}
		if id, _ := c.Locals(requestIDHeader).(string); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}

		if err != nil {
			logger.Error("request", append(attrs, slog.Any("error", err))...)
			return err
		}
		logger.Info("request", attrs...)
		return nil
	}
}
