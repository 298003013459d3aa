package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/univerify/univerify/internal/repository"
	univerify "github.com/univerify/univerify/sdk/go"
)

// SessionRepository implements repository.SessionRepository for SQLite.
// The session lives in a single row with id 1.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// LoadToken returns the stored token and user, or an empty token if none.
func (r *SessionRepository) LoadToken(ctx context.Context) (string, *univerify.User, error) {
	var token string
	var userJSON sql.NullString

	err := r.db.QueryRowContext(ctx, "SELECT token, user_json FROM session WHERE id = 1").Scan(&token, &userJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to query session: %w", err)
	}

	if !userJSON.Valid || userJSON.String == "" {
		return token, nil, nil
	}

	var user univerify.User
	if err := json.Unmarshal([]byte(userJSON.String), &user); err != nil {
		return "", nil, fmt.Errorf("failed to decode session user: %w", err)
	}
	return token, &user, nil
}

// SaveToken replaces the stored token and user.
func (r *SessionRepository) SaveToken(ctx context.Context, token string, user *univerify.User) error {
	if token == "" {
		return fmt.Errorf("%w: token cannot be empty", repository.ErrInvalidInput)
	}

	var userJSON sql.NullString
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode session user: %w", err)
		}
		userJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
		INSERT INTO session (id, token, user_json, updated_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_json = excluded.user_json,
			updated_at = excluded.updated_at
	`
	if _, err := execWithRetry(ctx, r.db, query, token, userJSON, formatTime(r.now())); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ClearToken removes the stored token.
func (r *SessionRepository) ClearToken(ctx context.Context) error {
	if _, err := execWithRetry(ctx, r.db, "DELETE FROM session WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

var _ repository.SessionRepository = (*SessionRepository)(nil)
