package relay

import (
	"context"
	"time"

	"github.com/InnoCoGo/Telegram-Bot/internal/metrics"
	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

// sweepInterval is how often the expiry pass runs when a TTL is configured.
const sweepInterval = 10 * time.Minute

// RunExpiry prunes pending requests older than the configured TTL until the
// context is cancelled. With a zero TTL it returns immediately, preserving
// the historical keep-forever behavior.
func (r *Relay) RunExpiry(ctx context.Context) {
	if r.pendingTTL <= 0 {
		return
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepExpired(ctx)
		}
	}
}

// sweepExpired removes expired entries from every user's pending list and
// deletes their prompts best-effort. Each user is handled under their lock
// against a freshly loaded record, since the listing may be stale by the
// time their turn comes.
func (r *Relay) sweepExpired(ctx context.Context) {
	users, err := r.store.ListUsersWithPending(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("expiry sweep: listing users failed")
		return
	}

	cutoff := time.Now().Add(-r.pendingTTL).Unix()
	for _, u := range users {
		r.expireUser(ctx, u.ID, cutoff)
	}
}

func (r *Relay) expireUser(ctx context.Context, userID, cutoff int64) {
	r.locks.Lock(userID)

	user, err := r.store.GetUser(ctx, userID)
	if err != nil || user == nil {
		r.locks.Unlock(userID)
		return
	}

	var kept, expired []models.PendingJoinRequest
	for _, p := range user.Pending {
		// Entries written before the TTL existed have no timestamp;
		// leave them alone.
		if p.CreatedAt > 0 && p.CreatedAt < cutoff {
			expired = append(expired, p)
		} else {
			kept = append(kept, p)
		}
	}
	if len(expired) == 0 {
		r.locks.Unlock(userID)
		return
	}

	if err := r.store.ReplacePending(ctx, userID, kept); err != nil {
		r.locks.Unlock(userID)
		r.logger.Warn().Err(err).Int64("admin_id", userID).Msg("expiry sweep: persist failed")
		return
	}
	r.locks.Unlock(userID)

	for _, p := range expired {
		metrics.ExpiredPending.Inc()
		r.logger.Info().
			Int64("admin_id", userID).
			Int64("trip_id", p.TripID).
			Int64("sender_id", p.SenderID).
			Msg("pending join request expired")
		if err := r.tg.DeletePrompt(ctx, userID, p.MessageID); err != nil {
			r.logger.Warn().Err(err).Int("message_id", p.MessageID).Msg("expiry sweep: prompt delete failed")
		}
	}
}
