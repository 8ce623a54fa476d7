package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayKeyPrefix      = "goldenreel:replay:v1:"
	replayPendingMarker  = "pending"

	replayStoreTimeout = 2 * time.Second
)

// replayRecord is the response snapshot stored for a finished mutation.
type replayRecord struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Idempotency makes retried mutations safe: a deposit, withdrawal or round
// settlement retried with the same Idempotency-Key returns the recorded
// response instead of moving money twice. The key is reserved in Redis before
// the handler runs, so two in-flight requests with the same key cannot both
// reach the ledger.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch strings.ToUpper(c.Method()) {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := replayKeyPrefix + key

		ctx, cancel := context.WithTimeout(context.Background(), replayStoreTimeout)
		defer cancel()

		prior, err := cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			return serveReplay(c, key, prior, logger)
		case err != redis.Nil:
			logger.Error("replay lookup failed", slog.String("idempotency_key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if err := cache.SetNX(ctx, cacheKey, replayPendingMarker, ttl).Err(); err != nil {
			logger.Error("replay reservation failed", slog.String("idempotency_key", key), slog.Any("error", err))
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency reservation failure")
		}

		if err := c.Next(); err != nil {
			// Failed handlers release the key so the client may retry.
			dropReplay(cache, cacheKey)
			return err
		}

		record := replayRecord{
			Status:  c.Response().StatusCode(),
			Body:    string(c.Response().Body()),
			Headers: map[string]string{},
		}
		c.Response().Header.VisitAll(func(k, v []byte) {
			record.Headers[string(k)] = string(v)
		})

		payload, err := json.Marshal(record)
		if err != nil {
			logger.Error("replay encode failed", slog.String("idempotency_key", key), slog.Any("error", err))
			dropReplay(cache, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), replayStoreTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("replay persist failed", slog.String("idempotency_key", key), slog.Any("error", err))
			cache.Del(persistCtx, cacheKey)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency persistence failure")
		}

		return nil
	}
}

func serveReplay(c *fiber.Ctx, key, prior string, logger *slog.Logger) error {
	if prior == replayPendingMarker {
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var record replayRecord
	if err := json.Unmarshal([]byte(prior), &record); err != nil {
		logger.Warn("stored replay is unreadable", slog.String("idempotency_key", key), slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}

	for header, value := range record.Headers {
		if strings.EqualFold(header, fiber.HeaderContentLength) {
			continue
		}
		c.Set(header, value)
	}
	return c.Status(record.Status).SendString(record.Body)
}

func dropReplay(cache *redis.Client, cacheKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), replayStoreTimeout)
	defer cancel()
	cache.Del(ctx, cacheKey) // best effort
}
