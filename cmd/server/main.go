package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/api"
	"github.com/InnoCoGo/Telegram-Bot/internal/backend"
	"github.com/InnoCoGo/Telegram-Bot/internal/config"
	"github.com/InnoCoGo/Telegram-Bot/internal/handlers"
	"github.com/InnoCoGo/Telegram-Bot/internal/relay"
	"github.com/InnoCoGo/Telegram-Bot/internal/store"
	"github.com/InnoCoGo/Telegram-Bot/internal/telegram"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	instanceID := uuid.New().String()
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Str("instance", instanceID).
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("instance", instanceID).
			Logger()
	}
	handlers.SetInstanceID(instanceID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the user store: Postgres when configured, SQLite otherwise
	var userStore store.UserStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		userStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.DBPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		userStore = sqliteStore
		logger.Info().Str("path", cfg.DBPath).Msg("opened SQLite store")
	}
	defer userStore.Close()

	// Initialize Redis (optional)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Telegram and backend clients
	tgClient, err := telegram.NewClient(cfg.TelegramToken, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram authentication failed")
	}
	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendSecret, logger)

	// The relay core
	core := relay.New(userStore, tgClient, backendClient, logger, cfg.PendingTTL)
	go core.RunExpiry(ctx)

	// Create router
	h := handlers.NewHandler(userStore, redisStore, core, cfg.BackendSecret, logger)
	router := api.NewRouter(logger, h, redisStore, cfg.WebhookSecret)

	// Create server
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Bool("tls", cfg.TLSEnabled()).
			Msg("starting trip join-request relay")

		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	cancel()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
