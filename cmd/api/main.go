package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/digitalforest/backend/docs"
	"github.com/digitalforest/backend/internal/cache"
	"github.com/digitalforest/backend/internal/config"
	"github.com/digitalforest/backend/internal/handlers"
	"github.com/digitalforest/backend/internal/logger"
	loggerMiddleware "github.com/digitalforest/backend/internal/logger/middleware"
	"github.com/digitalforest/backend/internal/metrics"
	"github.com/digitalforest/backend/internal/middlewares"
	"github.com/digitalforest/backend/internal/models"
	"github.com/digitalforest/backend/internal/repositories"
	"github.com/digitalforest/backend/internal/services"
	"github.com/digitalforest/backend/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// multipart boundaries and form fields on top of the largest accepted file
const maxRequestSize = models.MaxFileSize + 1<<20

// @title Digital Forest Tree Media API
// @version 1.0
// @description Upload pipeline and moderation queue for tree photos

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Moderator key required by the review endpoint
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting tree media service")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize object store
	store, err := storage.New(ctx, cfg.ObjectStore)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize object store", zap.Error(err))
	}
	logger.Logger.Info("Object store ready",
		zap.String("driver", cfg.ObjectStore.Driver),
		zap.String("bucket", store.Bucket()),
	)

	// Connect to Redis for the gallery cache, when configured
	var galleryCache services.GalleryCache
	if addr := cfg.RedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		galleryCache = cache.NewGalleryCache(rdb, cache.DefaultGalleryTTL)
	} else {
		logger.Logger.Info("REDIS_HOST not set, gallery cache disabled")
	}

	// Initialize metrics
	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	// Initialize repositories
	mediaRepo := repositories.NewMediaRepository(db)

	// Initialize services
	uploadService := services.NewUploadService(mediaRepo, store, galleryCache, recorder, logger.Logger)
	reviewService := services.NewReviewService(mediaRepo, store, galleryCache, recorder, logger.Logger)
	galleryService := services.NewGalleryService(mediaRepo, store, galleryCache, recorder, logger.Logger)

	if cfg.ModeratorAPIKey == "" {
		logger.Logger.Warn("MODERATOR_API_KEY not set, review endpoint is unguarded")
	}

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(uploadService, recorder, logger.Logger)
	reviewHandler := handlers.NewReviewHandler(reviewService, middlewares.APIKeyMiddleware(cfg.ModeratorAPIKey), recorder, logger.Logger)
	galleryHandler := handlers.NewGalleryHandler(galleryService, recorder, logger.Logger)
	base := &handlers.BaseHandler{Logger: logger.Logger}

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))

	r.MethodNotAllowed(base.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			base.RespondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		base.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		uploadHandler.RegisterRoutes(r)
		reviewHandler.RegisterRoutes(r)
		galleryHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second, // Longer timeout for proxied uploads
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "tree_media_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Running from cmd/api
		for _, dir := range []string{"../migrations", "../../migrations"} {
			if _, err := os.Stat(dir); err == nil {
				migrationPath = "file://" + dir
				break
			}
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
