package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"pdfstore/docs"
	"pdfstore/internal/config"
	"pdfstore/internal/database"
	"pdfstore/internal/database/migration"
	handlers "pdfstore/internal/http/handler"
	"pdfstore/internal/http/middleware"
	"pdfstore/internal/keys"
	"pdfstore/internal/logger"
	"pdfstore/internal/otel"
	"pdfstore/internal/repository"
	"pdfstore/internal/repository/postgres"
	"pdfstore/internal/repository/sidecar"
	"pdfstore/internal/service"
	"pdfstore/internal/storage"
)

// @title PDF Store API
// @version 1.0
// @description Stores PDF documents with a JSON metadata record and serves them back by id.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.Location())

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("tracing_init_failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracing_shutdown_failed")
		}
	}()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Storage.Backend).Fatal("storage_init_failed")
	}
	scheme := keys.ForBackend(cfg.Storage.Backend)

	repo, closeRepo := openMetadataRepository(ctx, cfg, store, scheme, log)
	defer closeRepo()

	docSvc := service.NewDocumentService(store, repo, scheme)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimitBytes(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("metrics_init_failed")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + middleware.RequestIDHeader,
	}))
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	app.Use(middleware.Logger(log))

	app.Get(middleware.MetricsPath, middleware.MetricsHandler(reg))
	handlers.RegisterRoutes(app, docSvc, store)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get(fiber.HeaderXForwardedProto); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Hostname()
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info("server_shutdown")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("server_shutdown_failed")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{
		"addr":             addr,
		"storage_backend":  cfg.Storage.Backend,
		"metadata_backend": cfg.MetadataBackend,
	}).Info("server_start")

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("server_start_failed")
	}
}

// openMetadataRepository wires the configured metadata backend. The returned func releases it.
func openMetadataRepository(ctx context.Context, cfg *config.AppConfig, store storage.Storage, scheme keys.Scheme, log *logrus.Logger) (repository.MetadataRepository, func()) {
	if cfg.MetadataBackend != config.MetadataPostgres {
		return sidecar.NewMetadataSidecar(store, scheme), func() {}
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("database_connect_failed")
	}
	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		db.Close()
		log.WithError(err).Fatal("database_migration_failed")
	}
	return postgres.NewMetadataPostgres(db), func() { db.Close() }
}
