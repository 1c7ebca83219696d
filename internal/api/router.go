package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/api/handler"
	"github.com/alertframe/alertframe/internal/api/middleware"
	"github.com/alertframe/alertframe/internal/extract"
	"github.com/alertframe/alertframe/internal/scheduler"
	"github.com/alertframe/alertframe/internal/secrets"
	"github.com/alertframe/alertframe/internal/user"
)

type Dependencies struct {
	AlertRepo  *alert.Repository
	UserRepo   *user.Repository
	Extractor  extract.Extractor
	Sweeper    *scheduler.Sweeper
	Confirmer  handler.Confirmer
	Box        *secrets.Box
	CronSecret string
	DB         *pgxpool.Pool
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "AlertFrame API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	var pool *pgxpool.Pool
	if r.deps != nil {
		pool = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pool)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	alertHandler := handler.NewAlertHandler(r.deps.AlertRepo, r.deps.Extractor, r.deps.Confirmer, r.logger)
	v1.Post("/alerts", alertHandler.Create)
	v1.Get("/alerts", alertHandler.List)
	v1.Get("/alerts/:id", alertHandler.Get)
	v1.Patch("/alerts/:id", alertHandler.Update)
	v1.Delete("/alerts/:id", alertHandler.Delete)
	v1.Get("/alerts/:id/changes", alertHandler.Changes)

	userHandler := handler.NewUserHandler(r.deps.UserRepo, r.deps.Box, r.logger)
	v1.Post("/users/:id/kernel-key", userHandler.SaveKernelKey)
	v1.Get("/users/:id/kernel-key", userHandler.HasKernelKey)
	v1.Delete("/users/:id/kernel-key", userHandler.DeleteKernelKey)
	v1.Post("/users/:id/gmail/disconnect", userHandler.DisconnectGmail)
	v1.Delete("/users/:id", userHandler.DeleteAccount)

	cronHandler := handler.NewCronHandler(r.deps.Sweeper, r.logger)
	cron := v1.Group("/cron", middleware.CronAuth(r.deps.CronSecret))
	cron.Get("/check-alerts", cronHandler.CheckAlerts)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
