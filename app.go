package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"usersvc/internal/cache"
	"usersvc/internal/config"
	"usersvc/internal/database"
	"usersvc/internal/handlers"
	"usersvc/internal/metrics"
	"usersvc/internal/middleware"
	"usersvc/internal/repositories"
	"usersvc/internal/security"
	"usersvc/internal/services"
	"usersvc/internal/validation"
	"usersvc/pkg/rabbitmq"
)

// App owns the HTTP server and the resources behind it.
type App struct {
	Fiber    *fiber.App
	Accounts *services.AccountService
	Auth     *services.AuthService

	db *gorm.DB
	mq *rabbitmq.Client
}

// NewApp wires storage, services and routes from cfg.
func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{}

	var (
		accountRepo repositories.AccountRepository
		petRepo     repositories.PetRepository
	)
	if cfg.DatabaseDriver == config.DriverMemory {
		pets := repositories.NewMemoryPetRepository()
		accountRepo = repositories.NewMemoryAccountRepository(pets)
		petRepo = pets
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
		a.db = db
		accountRepo = repositories.NewGORMAccountRepository(db)
		petRepo = repositories.NewGORMPetRepository(db)
	}

	opts := []services.AccountOption{
		services.WithLogger(log),
		services.WithAdmin(cfg.AdminUsername, cfg.AdminPassword),
	}
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.mq = mq
		opts = append(opts, services.WithPublisher(mq))
	}

	m := metrics.New()
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	gate := security.NewGate()
	v := validation.New()

	a.Accounts = services.NewAccountService(accountRepo, petRepo, cache.NewDirectoryCache(m), gate, hasher, v, opts...)
	a.Auth = services.NewAuthService(a.Accounts, hasher, cfg.JWTSecret, cfg.TokenTTL)
	petService := services.NewPetService(petRepo, gate, v)

	app := fiber.New(fiber.Config{
		AppName:      "usersvc",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthRequired(a.Auth)
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(apiV1)
	handlers.NewAccountHandler(a.Accounts).RegisterRoutes(apiV1, auth)
	handlers.NewPetHandler(petService).RegisterRoutes(apiV1, auth)

	app.Get("/health", a.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	a.Fiber = app
	return a, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status := fiber.StatusOK
	body := fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"events": a.mq != nil,
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = fiber.StatusServiceUnavailable
			body["status"] = "database unavailable"
		}
	}
	return c.Status(status).JSON(body)
}

// Close releases the database and broker connections.
func (a *App) Close() error {
	var errs []error
	if a.mq != nil {
		errs = append(errs, a.mq.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	return errors.Join(errs...)
}
