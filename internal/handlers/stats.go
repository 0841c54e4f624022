package handlers

import "net/http"

// StatsResponse represents the stats endpoint response.
type StatsResponse struct {
	Users           int64 `json:"users"`
	PendingRequests int64 `json:"pending_requests"`
	Decisions       int64 `json:"decisions"`
}

// Stats reports aggregate counters for operational visibility.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.CountUsers(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	pending, err := h.store.CountPending(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	decisions, err := h.store.CountDecisions(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		Users:           users,
		PendingRequests: pending,
		Decisions:       decisions,
	})
}
