package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quiz-world/internal/auth"
	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/handler"
	"github.com/quiz-world/internal/kafka"
	"github.com/quiz-world/internal/metrics"
	"github.com/quiz-world/internal/postgres"
	"github.com/quiz-world/internal/redis"
	"github.com/quiz-world/internal/service"
	"github.com/quiz-world/internal/store"
	"github.com/quiz-world/internal/websocket"
	"github.com/quiz-world/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using environment", "error", err)
		cfg, err = config.FromEnv()
		if err != nil {
			logger.Error("invalid environment configuration", "error", err)
			os.Exit(1)
		}
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Presence store
	presenceStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open presence store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer presenceStore.Close()

	// Metrics
	var m *metrics.Metrics
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// Optional PostgreSQL archive. The interfaces stay nil when disabled.
	var accounts service.AccountArchive
	var scores service.ScoreArchive
	if cfg.Postgres.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		repo, err := postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer repo.Close()

		if err := repo.RunMigrations(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		accounts, scores = repo, repo
		logger.Info("connected to PostgreSQL")
	}

	// Initialize services
	presenceService := service.NewPresenceService(
		presenceStore,
		accounts,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		&cfg.Presence,
		&cfg.World,
		m,
		logger,
	)
	chatService := service.NewChatService(presenceStore, m, logger)
	leaderboardService := service.NewLeaderboardService(presenceStore, scores, m, logger)

	// Optional leaderboard feed
	var wsHub *websocket.Hub
	if cfg.WebSocket.Enabled {
		wsHub = websocket.NewHub(logger)
		go wsHub.Run()
		leaderboardService.SetNotifier(wsHub)
		logger.Info("WebSocket hub initialized")
	}

	// Cleanup worker; restores the leaderboard from the archive first
	var restorer worker.Restorer
	if scores != nil {
		restorer = leaderboardService
	}
	cleanupWorker := worker.NewCleanupWorker(presenceService, restorer, &cfg.Cleanup, logger)
	if err := cleanupWorker.RestoreFromArchive(ctx); err != nil {
		logger.Warn("failed to restore from archive on startup", "error", err)
	}
	if cfg.Cleanup.Enabled {
		if err := cleanupWorker.Start(ctx); err != nil {
			logger.Error("failed to start cleanup worker", "error", err)
			os.Exit(1)
		}
	}

	// Kafka consumer for battle-result ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, leaderboardService, m, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started successfully")
		}
	}

	httpHandler := handler.NewHandler(presenceService, chatService, leaderboardService, wsHub, handler.Options{
		AnonKey:     cfg.Auth.AnonKey,
		Ready:       presenceStore.Ping,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port, "store", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	if wsHub != nil {
		wsHub.Stop()
	}

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if err := cleanupWorker.Stop(); err != nil {
		logger.Error("failed to stop cleanup worker", "error", err)
	}

	logger.Info("server stopped")
}

func openStore(cfg *config.Config, logger *slog.Logger) (store.PresenceStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn("using in-memory presence store; state is lost on restart")
		return store.NewMemory(), nil
	case "redis":
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		s, err := redis.NewStore(&cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to Redis")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
