// Package relay implements the join-request lifecycle core: it accepts
// submissions from the backend, tracks one outstanding decision per
// (admin, trip, requester) triple, and correlates the admin's button press
// back to the pending entry it answers.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/InnoCoGo/Telegram-Bot/internal/i18n"
	"github.com/InnoCoGo/Telegram-Bot/internal/metrics"
	"github.com/InnoCoGo/Telegram-Bot/internal/models"
	"github.com/InnoCoGo/Telegram-Bot/internal/store"
	"github.com/InnoCoGo/Telegram-Bot/internal/token"
)

// Dispatcher sends and deletes Telegram messages. Implemented by the
// telegram package; faked in tests. All calls are best-effort from the
// relay's point of view: a failed outbound call is logged, never retried,
// and never rolls back state already persisted.
type Dispatcher interface {
	// SendJoinPrompt sends an inline-keyboard prompt and returns the
	// message ID needed to delete it later.
	SendJoinPrompt(ctx context.Context, chatID int64, text, acceptLabel, acceptToken, rejectLabel, rejectToken string) (int, error)
	DeletePrompt(ctx context.Context, chatID int64, messageID int) error
	SendMessage(ctx context.Context, chatID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// BackendNotifier reports resolved decisions back to the backend.
type BackendNotifier interface {
	ReportDecision(ctx context.Context, tripID, askerInternalID int64, accepted bool) error
}

// Relay wires the store, the Telegram dispatcher and the backend notifier
// together. It is safe for concurrent use: every read-modify-write of a
// user's pending list happens under that user's lock.
type Relay struct {
	store      store.UserStore
	tg         Dispatcher
	backend    BackendNotifier
	locks      *userLocks
	logger     zerolog.Logger
	pendingTTL time.Duration
}

// New creates a Relay. pendingTTL of zero disables expiry of pending
// requests (the historical behavior).
func New(st store.UserStore, tg Dispatcher, backend BackendNotifier, logger zerolog.Logger, pendingTTL time.Duration) *Relay {
	return &Relay{
		store:      st,
		tg:         tg,
		backend:    backend,
		locks:      newUserLocks(),
		logger:     logger,
		pendingTTL: pendingTTL,
	}
}

// SubmitJoinRequest handles a backend submission: dedup check, prompt send,
// then persist. The prompt goes out before the entry is stored because the
// prompt's message ID is part of the entry.
func (r *Relay) SubmitJoinRequest(ctx context.Context, req models.JoinRequest) error {
	r.locks.Lock(req.TripAdminID)
	defer r.locks.Unlock(req.TripAdminID)

	admin, err := r.store.GetUser(ctx, req.TripAdminID)
	if err != nil {
		return fmt.Errorf("load admin %d: %w", req.TripAdminID, err)
	}
	if admin == nil {
		return fmt.Errorf("%w: admin %d has never contacted the bot", ErrUnknownUser, req.TripAdminID)
	}

	if findPending(admin.Pending, req.TripID, req.AskerTelegramID) >= 0 {
		metrics.DuplicateRequests.Inc()
		r.logger.Error().
			Int64("trip_id", req.TripID).
			Int64("sender_id", req.AskerTelegramID).
			Int64("admin_id", req.TripAdminID).
			Msg("matching pending request already exists")
		return ErrDuplicateRequest
	}

	asker, err := r.store.GetUser(ctx, req.AskerTelegramID)
	if err != nil {
		return fmt.Errorf("load asker %d: %w", req.AskerTelegramID, err)
	}
	if asker == nil {
		return fmt.Errorf("%w: asker %d has never contacted the bot", ErrUnknownUser, req.AskerTelegramID)
	}

	lang := admin.LanguageIndex()
	acceptTok := token.Encode(token.Accept, req.TripID, req.AskerTelegramID, req.AskerInternalID)
	rejectTok := token.Encode(token.Reject, req.TripID, req.AskerTelegramID, req.AskerInternalID)
	text := i18n.JoinPrompt(asker.Username, req.TripName, lang)

	msgID, err := r.tg.SendJoinPrompt(ctx, admin.ID, text,
		i18n.AcceptButton(lang), acceptTok,
		i18n.RejectButton(lang), rejectTok)
	if err != nil {
		metrics.OutboundFailures.WithLabelValues("telegram").Inc()
		return fmt.Errorf("send join prompt to %d: %w", admin.ID, err)
	}

	entry := models.PendingJoinRequest{
		TripID:      req.TripID,
		SenderID:    req.AskerTelegramID,
		MessageID:   msgID,
		RawTripDesc: req.TripName,
		CreatedAt:   time.Now().Unix(),
	}
	pending, err := insertIfAbsent(admin.Pending, entry)
	if err != nil {
		return err
	}
	if err := r.store.ReplacePending(ctx, admin.ID, pending); err != nil {
		return fmt.Errorf("persist pending list for %d: %w", admin.ID, err)
	}

	metrics.JoinRequestsRelayed.Inc()
	r.logger.Info().
		Int64("trip_id", req.TripID).
		Int64("sender_id", req.AskerTelegramID).
		Int64("admin_id", req.TripAdminID).
		Int("message_id", msgID).
		Msg("join request relayed to admin")
	return nil
}

// HandleUpdate dispatches an inbound Telegram event. Errors are reported for
// logging and tests; the webhook always acknowledges regardless.
func (r *Relay) HandleUpdate(ctx context.Context, upd models.Update) error {
	switch upd.Kind {
	case models.UpdateContact:
		_, err := r.store.UpsertUser(ctx, upd.UserID, upd.Username, upd.LanguageCode)
		return err
	case models.UpdateDecision:
		return r.resolveDecision(ctx, upd)
	default:
		return fmt.Errorf("relay: unhandled update kind %d", upd.Kind)
	}
}

// resolveDecision drives a pending request from Pending to Resolved: decode
// the token, correlate it against the responder's pending list, remove and
// persist, then fan out the notifications. The removal is committed before
// any outbound call so a crash mid-fanout leaves the request resolved, not
// re-offerable.
func (r *Relay) resolveDecision(ctx context.Context, upd models.Update) error {
	admin, err := r.store.UpsertUser(ctx, upd.UserID, upd.Username, upd.LanguageCode)
	if err != nil {
		return fmt.Errorf("upsert responder %d: %w", upd.UserID, err)
	}

	tok, err := token.Decode(upd.CallbackData)
	if err != nil {
		metrics.MalformedTokens.Inc()
		r.logger.Error().Err(err).
			Int64("admin_id", upd.UserID).
			Str("data", upd.CallbackData).
			Msg("malformed decision token")
		r.answerCallback(ctx, upd.CallbackID)
		return err
	}

	r.locks.Lock(admin.ID)
	admin, err = r.store.GetUser(ctx, admin.ID)
	if err != nil || admin == nil {
		r.locks.Unlock(upd.UserID)
		return fmt.Errorf("reload responder %d: %w", upd.UserID, err)
	}

	idx := findPending(admin.Pending, tok.TripID, tok.AskerTelegramID)
	if idx < 0 {
		r.locks.Unlock(admin.ID)
		metrics.StaleCallbacks.Inc()
		r.logger.Error().
			Int64("trip_id", tok.TripID).
			Int64("sender_id", tok.AskerTelegramID).
			Int64("admin_id", admin.ID).
			Msg("no matching pending request for decision")
		r.answerCallback(ctx, upd.CallbackID)
		return ErrNoMatchingRequest
	}

	entry, remaining, err := removeAt(admin.Pending, idx)
	if err != nil {
		r.locks.Unlock(admin.ID)
		return err
	}
	if err := r.store.ReplacePending(ctx, admin.ID, remaining); err != nil {
		r.locks.Unlock(admin.ID)
		return fmt.Errorf("persist pending list for %d: %w", admin.ID, err)
	}
	r.locks.Unlock(admin.ID)

	accepted := tok.Decision == token.Accept

	// State is committed; everything below is best-effort fanout.
	r.answerCallback(ctx, upd.CallbackID)

	if err := r.tg.DeletePrompt(ctx, admin.ID, entry.MessageID); err != nil {
		metrics.OutboundFailures.WithLabelValues("telegram").Inc()
		r.logger.Warn().Err(err).
			Int64("admin_id", admin.ID).
			Int("message_id", entry.MessageID).
			Msg("failed to delete prompt")
	}

	r.notifyAsker(ctx, admin, tok.AskerTelegramID, entry.RawTripDesc, accepted)

	if err := r.backend.ReportDecision(ctx, tok.TripID, tok.AskerInternalID, accepted); err != nil {
		metrics.OutboundFailures.WithLabelValues("backend").Inc()
		r.logger.Error().Err(err).
			Int64("trip_id", tok.TripID).
			Int64("asker_internal_id", tok.AskerInternalID).
			Msg("failed to report decision to backend")
	}

	r.recordDecision(ctx, admin.ID, tok, accepted)

	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	metrics.Decisions.WithLabelValues(outcome).Inc()
	r.logger.Info().
		Int64("trip_id", tok.TripID).
		Int64("sender_id", tok.AskerTelegramID).
		Int64("admin_id", admin.ID).
		Bool("accepted", accepted).
		Msg("join request resolved")
	return nil
}

// notifyAsker sends the localized outcome message to the requester.
func (r *Relay) notifyAsker(ctx context.Context, admin *models.User, askerID int64, rawTripDesc string, accepted bool) {
	asker, err := r.store.GetUser(ctx, askerID)
	if err != nil || asker == nil {
		r.logger.Warn().Err(err).Int64("asker_id", askerID).Msg("asker record missing, skipping notification")
		return
	}

	var text string
	if accepted {
		text = i18n.Accepted(admin.Username, rawTripDesc, asker.LanguageIndex())
	} else {
		text = i18n.Rejected(admin.Username, rawTripDesc, asker.LanguageIndex())
	}
	if err := r.tg.SendMessage(ctx, asker.ID, text); err != nil {
		metrics.OutboundFailures.WithLabelValues("telegram").Inc()
		r.logger.Warn().Err(err).Int64("asker_id", askerID).Msg("failed to notify asker")
	}
}

// recordDecision writes the audit row. Failures are logged only: the
// decision itself is already resolved.
func (r *Relay) recordDecision(ctx context.Context, adminID int64, tok token.Token, accepted bool) {
	d := &models.Decision{
		ID:              ulid.Make().String(),
		TripID:          tok.TripID,
		AdminID:         adminID,
		AskerTelegramID: tok.AskerTelegramID,
		AskerInternalID: tok.AskerInternalID,
		Accepted:        accepted,
		DecidedAt:       time.Now().UnixMilli(),
	}
	if err := r.store.RecordDecision(ctx, d); err != nil {
		r.logger.Warn().Err(err).Str("decision_id", d.ID).Msg("failed to record decision")
	}
}

// answerCallback acknowledges the button press so Telegram stops the
// client-side spinner. Best-effort.
func (r *Relay) answerCallback(ctx context.Context, callbackID string) {
	if callbackID == "" {
		return
	}
	if err := r.tg.AnswerCallback(ctx, callbackID); err != nil {
		r.logger.Warn().Err(err).Msg("failed to answer callback query")
	}
}
