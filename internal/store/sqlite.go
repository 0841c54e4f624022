package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

// SQLiteStore is the default UserStore, backed by a single SQLite file. The
// pending list is stored as a JSON column and rewritten whole on each
// mutation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the database at dbPath.
// If dbPath is empty, defaults to "./data/tripbot.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/tripbot.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		language_code TEXT NOT NULL DEFAULT '',
		pending_requests TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		trip_id INTEGER NOT NULL,
		admin_id INTEGER NOT NULL,
		asker_tg_id INTEGER NOT NULL,
		asker_internal_id INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		decided_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_trip ON decisions(trip_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user and their pending list by Telegram ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	var pendingJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, language_code, pending_requests
		FROM users WHERE id = ?
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.LanguageCode,
		&pendingJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(pendingJSON), &user.Pending); err != nil {
		return nil, err
	}
	return user, nil
}

// UpsertUser creates the identity record with an empty pending list, or
// refreshes the username and language code if it already exists. The pending
// list of an existing user is never touched here.
func (s *SQLiteStore) UpsertUser(ctx context.Context, id int64, username, languageCode string) (*models.User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, language_code, pending_requests)
		VALUES (?, ?, ?, '[]')
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, language_code = excluded.language_code
	`, id, username, languageCode)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

// ReplacePending overwrites the stored pending sequence for a user.
func (s *SQLiteStore) ReplacePending(ctx context.Context, id int64, pending []models.PendingJoinRequest) error {
	if pending == nil {
		pending = []models.PendingJoinRequest{}
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET pending_requests = ? WHERE id = ?
	`, string(data), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New("store: user not found")
	}
	return nil
}

// ListUsersWithPending returns every user holding at least one pending entry.
func (s *SQLiteStore) ListUsersWithPending(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, language_code, pending_requests
		FROM users WHERE pending_requests != '[]'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var pendingJSON string
		if err := rows.Scan(&user.ID, &user.Username, &user.LanguageCode, &pendingJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(pendingJSON), &user.Pending); err != nil {
			continue
		}
		if len(user.Pending) == 0 {
			continue
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// RecordDecision appends a row to the decision audit log.
func (s *SQLiteStore) RecordDecision(ctx context.Context, d *models.Decision) error {
	accepted := 0
	if d.Accepted {
		accepted = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, trip_id, admin_id, asker_tg_id, asker_internal_id, accepted, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.TripID, d.AdminID, d.AskerTelegramID, d.AskerInternalID, accepted, d.DecidedAt)
	return err
}

// CountDecisions returns the total number of recorded decisions.
func (s *SQLiteStore) CountDecisions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions`).Scan(&count)
	return count, err
}

// CountUsers returns the total number of identity records.
func (s *SQLiteStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountPending returns the total number of outstanding join requests across
// all users.
func (s *SQLiteStore) CountPending(ctx context.Context) (int64, error) {
	users, err := s.ListUsersWithPending(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, u := range users {
		total += int64(len(u.Pending))
	}
	return total, nil
}
