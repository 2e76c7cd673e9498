package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/api"
	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/config"
	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/events"
	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/jobs"
	"github.com/bulkoils/catalog-scraper/internal/catalog-scraper/scraper"
	"github.com/bulkoils/catalog-scraper/internal/database"
	"github.com/bulkoils/catalog-scraper/internal/httpclient"
	"github.com/bulkoils/catalog-scraper/internal/queue"
	"github.com/bulkoils/catalog-scraper/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database is optional; without it runs live in memory only
	var db *database.DB
	var runRepo *database.RunRepository
	if cfg.Database.Enabled() {
		db, err = database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		runRepo = database.NewRunRepository(db)
	}

	// Relay needs both the outbox (database) and Redis
	var relay *database.Relay
	var publisher *events.Publisher
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}

		publisher = events.NewPublisher(db, cfg.Redis.Stream, logger)
		relay = database.NewRelay(db, redisClient, logger, database.RelayConfig{
			PollInterval: 5 * time.Second,
			BatchSize:    100,
		})
		go func() {
			if err := relay.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("relay stopped with error", "error", err)
			}
		}()
	}

	store, err := storage.NewResultStore(cfg.Output.Dir)
	if err != nil {
		logger.Error("failed to create result store", "error", err)
		os.Exit(1)
	}

	metrics := scraper.NewMetrics()
	client := httpclient.New(cfg.Scraper.RequestTimeout)
	resolver, err := scraper.NewVariantResolver(client, cfg.Target.BaseURL, cfg.Scraper.VariantCacheSize, cfg.Scraper.StrictFamily, metrics, logger)
	if err != nil {
		logger.Error("failed to create variant resolver", "error", err)
		os.Exit(1)
	}
	scraperService := scraper.NewService(client, resolver, cfg.Target.BaseURL, cfg.Scraper.MaxPages, cfg.Scraper.PageDelay, metrics, logger)

	runQueue := queue.NewRunQueue()
	defer runQueue.Close()

	var runPublisher jobs.RunPublisher
	if publisher != nil {
		runPublisher = publisher
	}
	runManager := jobs.NewManager(runQueue, scraperService, store, runRepo, runPublisher, logger)

	// Single worker: runs are serialized by design
	go runManager.StartWorker(ctx)

	defaultTerms := append(append([]string{}, cfg.Target.SearchTerms...), cfg.Target.CategoryTerms...)
	var dbPing func(context.Context) error
	if db != nil {
		dbPing = func(ctx context.Context) error { return db.Pool().Ping(ctx) }
	}
	handlers := api.NewHandlers(runManager, scraperService, defaultTerms, dbPing, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/scraper", func(r chi.Router) {
			r.Post("/runs", handlers.CreateRun)
			r.Get("/runs", handlers.ListRuns)
			r.Get("/runs/{runID}", handlers.GetRun)
			r.Get("/runs/{runID}/products", handlers.GetRunProducts)
		})

		r.Get("/stats", handlers.GetStats)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Server.Port, "base_url", cfg.Target.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newLogger builds the slog handler: JSON for deployments, tinted text
// for local work.
func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if cfg.Format == "text" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
