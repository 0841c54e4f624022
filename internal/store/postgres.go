package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

// PostgresStore is the UserStore used when DATABASE_URL is configured. The
// physical layout matches the SQLite store: one row per user with the
// pending list in a JSONB column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool and
// initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		language_code TEXT NOT NULL DEFAULT '',
		pending_requests JSONB NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		trip_id BIGINT NOT NULL,
		admin_id BIGINT NOT NULL,
		asker_tg_id BIGINT NOT NULL,
		asker_internal_id BIGINT NOT NULL,
		accepted BOOLEAN NOT NULL,
		decided_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_trip ON decisions(trip_id);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetUser retrieves a user and their pending list by Telegram ID.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	var pendingJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, language_code, pending_requests
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.LanguageCode,
		&pendingJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(pendingJSON, &user.Pending); err != nil {
		return nil, err
	}
	return user, nil
}

// UpsertUser creates the identity record with an empty pending list, or
// refreshes the username and language code if it already exists.
func (s *PostgresStore) UpsertUser(ctx context.Context, id int64, username, languageCode string) (*models.User, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, language_code, pending_requests)
		VALUES ($1, $2, $3, '[]')
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, language_code = EXCLUDED.language_code
	`, id, username, languageCode)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// ReplacePending overwrites the stored pending sequence for a user.
func (s *PostgresStore) ReplacePending(ctx context.Context, id int64, pending []models.PendingJoinRequest) error {
	if pending == nil {
		pending = []models.PendingJoinRequest{}
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET pending_requests = $1 WHERE id = $2
	`, data, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("store: user not found")
	}
	return nil
}

// ListUsersWithPending returns every user holding at least one pending entry.
func (s *PostgresStore) ListUsersWithPending(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, language_code, pending_requests
		FROM users WHERE jsonb_array_length(pending_requests) > 0
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var pendingJSON []byte
		if err := rows.Scan(&user.ID, &user.Username, &user.LanguageCode, &pendingJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(pendingJSON, &user.Pending); err != nil {
			continue
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// RecordDecision appends a row to the decision audit log.
func (s *PostgresStore) RecordDecision(ctx context.Context, d *models.Decision) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO decisions (id, trip_id, admin_id, asker_tg_id, asker_internal_id, accepted, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.TripID, d.AdminID, d.AskerTelegramID, d.AskerInternalID, d.Accepted, d.DecidedAt)
	return err
}

// CountDecisions returns the total number of recorded decisions.
func (s *PostgresStore) CountDecisions(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&count)
	return count, err
}

// CountUsers returns the total number of identity records.
func (s *PostgresStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountPending returns the total number of outstanding join requests across
// all users.
func (s *PostgresStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(jsonb_array_length(pending_requests)), 0) FROM users
	`).Scan(&count)
	return count, err
}
