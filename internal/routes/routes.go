package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/goldenreel/goldenreel/internal/auth"
	"github.com/goldenreel/goldenreel/internal/config"
	"github.com/goldenreel/goldenreel/internal/games"
	"github.com/goldenreel/goldenreel/internal/identity"
	"github.com/goldenreel/goldenreel/internal/ledger"
	"github.com/goldenreel/goldenreel/internal/metrics"
	"github.com/goldenreel/goldenreel/internal/middleware"
	"github.com/goldenreel/goldenreel/internal/notification"
	"github.com/goldenreel/goldenreel/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.DevMode() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Stores
	var ledgerStore ledger.Store
	if d.DB != nil {
		ledgerStore = ledger.NewPostgresStore(d.DB)
	} else {
		ledgerStore = ledger.NewMemoryStore()
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}

	var gamesRepo games.Repository
	if d.DB != nil {
		gamesRepo = games.NewPostgresRepository(d.DB)
	} else {
		gamesRepo = devCatalog()
	}

	// Services and handlers
	ledgerSvc := ledger.NewService(ledgerStore)
	notifier := notification.NewLoggerNotifier(d.Logger)
	tokens := auth.NewTokenManager(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)

	walletHandler := wallet.NewHandler(wallet.NewService(ledgerStore, ledgerSvc))
	identityHandler := identity.NewHandler(identity.NewService(identityRepo, ledgerStore), tokens)
	gamesHandler := games.NewHandler(games.NewService(gamesRepo, ledgerSvc, notifier))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Mutations replay safely when the client retries with the same key.
	var idem fiber.Handler
	if d.Cache != nil {
		idem = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterUserRoutes(api, identityHandler, identityRepo, tokens, rateLimiter)
	RegisterWalletRoutes(api, walletHandler, idem)
	RegisterGameRoutes(api, gamesHandler, idem)

	return nil
}

// devCatalog seeds an in-memory catalog so the API is playable without a database.
func devCatalog() games.Repository {
	repo := games.NewMemoryRepository()
	repo.Add(games.Game{
		ID:     "6f1b8a52-0c0e-4f6a-9f1d-0d2e6b1a9002",
		Code:   "roulette",
		Name:   "Roulette",
		Type:   "table",
		Status: games.StatusActive,
		Variants: []games.Variant{{
			ID:               "2c9d4e10-53ab-4aa1-8a3e-4f7c1b2d3003",
			GameID:           "6f1b8a52-0c0e-4f6a-9f1d-0d2e6b1a9002",
			Name:             "European Roulette",
			MinBet:           100,
			MaxBet:           100000,
			HouseEdgePercent: 2.7,
			Status:           games.StatusActive,
		}},
	})
	return repo
}
