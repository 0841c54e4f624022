package handlers

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/InnoCoGo/Telegram-Bot/internal/metrics"
	"github.com/InnoCoGo/Telegram-Bot/internal/telegram"
)

// TelegramWebhook receives update deliveries from Telegram. The secret
// header has already been checked by middleware. Whatever happens inside,
// the delivery is acknowledged with 200 so Telegram does not redeliver: an
// update we cannot handle now will not become handleable by retrying.
func (h *Handler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var upd tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.Error().Err(err).Msg("undecodable webhook body")
		h.OK(w)
		return
	}

	// Telegram delivers at-least-once; drop redeliveries when Redis is
	// around to remember them.
	if h.redis != nil && upd.UpdateID != 0 {
		fresh, err := h.redis.MarkUpdateProcessed(r.Context(), int64(upd.UpdateID))
		if err == nil && !fresh {
			metrics.DuplicateUpdates.Inc()
			h.logger.Info().Int("update_id", upd.UpdateID).Msg("duplicate update delivery dropped")
			h.OK(w)
			return
		}
	}

	event, ok := telegram.ParseUpdate(upd)
	if !ok {
		h.logger.Debug().Int("update_id", upd.UpdateID).Msg("ignoring unhandled update shape")
		h.OK(w)
		return
	}

	if err := h.relay.HandleUpdate(r.Context(), event); err != nil {
		// Already logged with context inside the relay; the delivery
		// is still acknowledged.
		h.logger.Debug().Err(err).Int("update_id", upd.UpdateID).Msg("update not fully handled")
	}
	h.OK(w)
}
