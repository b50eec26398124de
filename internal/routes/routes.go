package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jeezpay/jeezpay/internal/auth"
	"github.com/jeezpay/jeezpay/internal/config"
	"github.com/jeezpay/jeezpay/internal/funding"
	"github.com/jeezpay/jeezpay/internal/identity"
	"github.com/jeezpay/jeezpay/internal/ledger"
	"github.com/jeezpay/jeezpay/internal/middleware"
	"github.com/jeezpay/jeezpay/internal/notification"
	"github.com/jeezpay/jeezpay/internal/payments"
	"github.com/jeezpay/jeezpay/internal/wallet"
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
	// The in-memory fallbacks exist for dev and tests only.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewInMemory()
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}

	users := identity.NewService(identityRepo)
	wallets := wallet.NewService(store, d.Cfg.DefaultCurrencies)
	notifier := notification.NewLoggerNotifier(d.Logger)
	paymentSvc := payments.NewService(store, users, wallets, notifier)
	fundingSvc := funding.NewService(store, users)
	authSvc := auth.NewService(d.Cfg, d.Cache, users, wallets, notifier)

	authHandler := auth.NewHandler(authSvc, users)
	walletHandler := wallet.NewHandler(wallets)
	paymentHandler := payments.NewHandler(paymentSvc)
	fundingHandler := funding.NewHandler(fundingSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	otpLimiter := middleware.OTPRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, otpLimiter)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(d.Cfg))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	protected.Get("/me", authHandler.Me)
	RegisterWalletRoutes(protected, walletHandler, paymentHandler, fundingHandler)

	return nil
}
