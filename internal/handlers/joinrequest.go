package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

// JoinRequest receives a join-request submission from the backend. The
// shared secret travels in the body, so authentication happens after
// decoding. Internal failures past authentication are acknowledged with 200:
// the backend cannot do anything useful with a 5xx here, and duplicates are
// an expected condition, not a delivery failure.
func (h *Handler) JoinRequest(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.SecretToken), []byte(h.backendSecret)) != 1 {
		h.logger.Error().Msg("join request with bad secret token")
		h.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.relay.SubmitJoinRequest(r.Context(), req); err != nil {
		// Duplicates and unknown users are logged by the relay;
		// nothing is pending and nothing was sent.
		h.logger.Debug().Err(err).Int64("trip_id", req.TripID).Msg("join request not relayed")
	}
	h.OK(w)
}
