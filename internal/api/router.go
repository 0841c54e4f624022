package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/api/middleware"
	"github.com/InnoCoGo/Telegram-Bot/internal/handlers"
	"github.com/InnoCoGo/Telegram-Bot/internal/store"
)

// NewRouter creates and configures the HTTP router. redisStore may be nil;
// rate limiting is skipped without it.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, redisStore *store.RedisStore, webhookSecret string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024)) // 64KB max body

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger)
		r.Use(limiter.Middleware)
	}

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	// Backend submissions authenticate with an in-body shared secret.
	r.Post("/join_request", h.JoinRequest)

	// Telegram deliveries authenticate with the webhook secret header.
	r.Group(func(r chi.Router) {
		r.Use(middleware.TelegramAuth(webhookSecret, logger))
		r.Post("/telegram/webhook", h.TelegramWebhook)
	})

	return r
}
