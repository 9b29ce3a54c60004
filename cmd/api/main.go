package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"invoiceapi/internal/auth"
	"invoiceapi/internal/config"
	"invoiceapi/internal/database"
	"invoiceapi/internal/database/migration"
	handlers "invoiceapi/internal/http/handler"
	"invoiceapi/internal/http/middleware"
	"invoiceapi/internal/ocr"
	"invoiceapi/internal/otel"
	"invoiceapi/internal/repository/postgres"
	"invoiceapi/internal/service"
	"invoiceapi/internal/storage"
	"invoiceapi/internal/upload"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()

	// Initialize OpenTelemetry tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.Local)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run schema migrations on a fresh database
	if err := migration.EnsureMigrated(ctx, db, time.Local, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Optional S3-compatible artifact archive (MinIO-supported); local disk
	// remains the authoritative store for extraction.
	var archive storage.Storage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinIO(cfg.Archive)
		if err != nil {
			log.Fatalf("failed to initialize artifact archive: %v", err)
		}
	}

	// Initialize repositories and services
	userRepo := postgres.NewUserPostgres(db)
	invRepo := postgres.NewInvoicePostgres(db)

	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	authSvc := service.NewAuthService(userRepo, tokens)
	invSvc := service.NewInvoiceService(
		upload.NewValidator(cfg.Upload),
		ocr.NewRunner(cfg.OCR),
		invRepo,
		archive,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Twice the upload ceiling: multipart framing must never be what
		// rejects a file, the validator owns the real limit.
		BodyLimit: 2 * int(cfg.Upload.MaxSizeBytes),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	// Per-request tracing spans
	app.Use(otelfiber.Middleware())

	// Prometheus request counting plus the /metrics scrape endpoint
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to initialize metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, authSvc, invSvc, middleware.RequireAuth(tokens))

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
