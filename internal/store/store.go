package store

import (
	"context"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

// UserStore defines the persistence contract for identity records and their
// pending join-request lists. Both SQLiteStore and PostgresStore implement
// this interface.
//
// The store does no concurrency control of its own: callers must serialize
// GetUser -> mutate -> ReplacePending cycles per user (the relay holds a
// keyed lock around them).
type UserStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Identity operations
	// GetUser returns (nil, nil) when the user is unknown.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// UpsertUser creates the user with an empty pending list, or updates
	// the display handle and language code if the record already exists.
	UpsertUser(ctx context.Context, id int64, username, languageCode string) (*models.User, error)

	// Pending-list operations
	// ReplacePending atomically overwrites the stored pending sequence.
	ReplacePending(ctx context.Context, id int64, pending []models.PendingJoinRequest) error
	// ListUsersWithPending returns every user holding at least one
	// pending entry, in no particular order.
	ListUsersWithPending(ctx context.Context) ([]models.User, error)

	// Decision audit log
	RecordDecision(ctx context.Context, d *models.Decision) error
	CountDecisions(ctx context.Context) (int64, error)

	// Stats
	CountUsers(ctx context.Context) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}
