package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"
)

// secretTokenHeader is set by Telegram on webhook deliveries when the
// webhook was registered with a secret_token.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramAuth verifies the webhook secret header in constant time. A
// mismatch is rejected with 403 before the body is touched.
func TelegramAuth(secret string, logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(secretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Error().
					Str("remote_addr", r.RemoteAddr).
					Msg("webhook request with bad secret token")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
