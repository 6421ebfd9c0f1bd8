package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"noteshare/docs"
	"noteshare/internal/config"
	"noteshare/internal/database"
	"noteshare/internal/database/migration"
	handlers "noteshare/internal/http/handler"
	"noteshare/internal/http/middleware"
	"noteshare/internal/otel"
	"noteshare/internal/repository/postgres"
	"noteshare/internal/service"
	"noteshare/internal/storage"
)

// @title NoteShare API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.UTC

	shutdownTracing, err := otel.Init(context.Background(), loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(context.Background(), db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Select the upload storage backend. Disk is the default; MinIO is
	// opt-in via STORAGE_BACKEND=minio.
	var objStore storage.Storage
	switch cfg.Storage.Backend {
	case "minio":
		objStore, err = storage.NewMinIO(cfg.Storage.MinIO)
	default:
		objStore, err = storage.NewDisk(cfg.Storage.Disk)
	}
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	files := service.NewFileManager(objStore)
	userRepo := postgres.NewUserPostgres(db)
	noteRepo := postgres.NewNotePostgres(db)
	userSvc := service.NewUserService(userRepo, files, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinute)*time.Minute)
	noteSvc := service.NewNoteService(noteRepo, files)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.MaxUploadSizeMB * 1024 * 1024,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, userSvc, noteSvc, cfg.Auth.JWTSecret)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
