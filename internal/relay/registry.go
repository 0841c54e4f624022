package relay

import (
	"errors"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

var (
	// ErrDuplicateRequest is returned when a join request arrives for a
	// (trip, sender) pair that already has a pending entry with the same
	// admin.
	ErrDuplicateRequest = errors.New("relay: duplicate join request")

	// ErrNoMatchingRequest is returned when a decision cannot be
	// correlated with any pending entry (stale or replayed button).
	ErrNoMatchingRequest = errors.New("relay: no matching pending request")

	// ErrUnknownUser is returned when an identity record the operation
	// needs does not exist yet.
	ErrUnknownUser = errors.New("relay: unknown user")
)

// findPending scans a pending list in insertion order and returns the index
// of the first entry matching (tripID, senderID), or -1. The registry
// invariant keeps at most one match alive, so first-match is deterministic
// even if the invariant is ever violated.
func findPending(pending []models.PendingJoinRequest, tripID, senderID int64) int {
	for i, p := range pending {
		if p.TripID == tripID && p.SenderID == senderID {
			return i
		}
	}
	return -1
}

// insertIfAbsent appends an entry to the pending list, failing closed with
// ErrDuplicateRequest if an entry for the same (trip, sender) key already
// exists. Duplicate suppression has to happen before any prompt is sent,
// otherwise the admin gets two prompts and later correlation is ambiguous.
func insertIfAbsent(pending []models.PendingJoinRequest, entry models.PendingJoinRequest) ([]models.PendingJoinRequest, error) {
	if findPending(pending, entry.TripID, entry.SenderID) >= 0 {
		return pending, ErrDuplicateRequest
	}
	return append(pending, entry), nil
}

// removeAt removes the entry at index i and returns it together with the
// remaining list. A stale index fails with ErrNoMatchingRequest.
func removeAt(pending []models.PendingJoinRequest, i int) (models.PendingJoinRequest, []models.PendingJoinRequest, error) {
	if i < 0 || i >= len(pending) {
		return models.PendingJoinRequest{}, pending, ErrNoMatchingRequest
	}
	entry := pending[i]
	remaining := make([]models.PendingJoinRequest, 0, len(pending)-1)
	remaining = append(remaining, pending[:i]...)
	remaining = append(remaining, pending[i+1:]...)
	return entry, remaining, nil
}
