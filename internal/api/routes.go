package api

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeovahfialho/relatorio-vendas/internal/config"
)

// NewApp builds the fiber app with the global middlewares and routes.
func NewApp(cfg *config.Config, handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               false,
		ServerHeader:          "Relatorio-Vendas",
		DisableStartupMessage: !cfg.IsDevelopment(),
		AppName:               "Relatório de Vendas v" + version,
		ReadTimeout:           cfg.APIReadTimeout,
		WriteTimeout:          cfg.APIWriteTimeout,
		IdleTimeout:           120 * time.Second,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
		BodyLimit:             cfg.UploadMaxBytes,
		UnescapePath:          true,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestID}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-Request-ID",
	}))

	SetupRoutes(app, handler, cfg)
	return app
}

func SetupRoutes(app *fiber.App, handler *Handler, cfg *config.Config) {
	// Health checks (sem rate limiting)
	app.Get("/health", handler.HealthCheck)
	app.Get("/ready", handler.ReadinessCheck)

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	routes := app.Group("/")
	routes.Use(RateLimiter(cfg.RateLimitMax))
	routes.Use(PrometheusMiddleware())

	// Arquivos brutos
	routes.Post("/upload", handler.Upload)
	routes.Get("/arquivos", handler.ListFiles)
	routes.Delete("/arquivo/:nome", handler.DeleteFile)
	routes.Get("/dados/:nome", handler.GetFileData)
	routes.Post("/processar/:nome", handler.ProcessFile)

	// Relatórios
	routes.Get("/relatorios", handler.ListReports)
	routes.Get("/relatorio/:nome", handler.GetReport)
	routes.Get("/relatorio/:nome/resumo", handler.GetReportSummary)
	routes.Get("/relatorio/:nome/historico", handler.GetHistory)
	routes.Get("/relatorio-dados/:nome", handler.GetReportData)
}
