package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/relay"
	"github.com/InnoCoGo/Telegram-Bot/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	store store.UserStore
	redis *store.RedisStore // nil when Redis is not configured
	relay *relay.Relay

	backendSecret string
	logger        zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(st store.UserStore, redis *store.RedisStore, rl *relay.Relay, backendSecret string, logger zerolog.Logger) *Handler {
	return &Handler{
		store:         st,
		redis:         redis,
		relay:         rl,
		backendSecret: backendSecret,
		logger:        logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// OK acknowledges an inbound trigger. Both upstreams only look at the status
// code; the body matches what they historically received.
func (h *Handler) OK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
