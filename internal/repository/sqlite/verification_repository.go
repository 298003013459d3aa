package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/univerify/univerify/internal/repository"
)

// VerificationRepository implements repository.VerificationRepository for SQLite.
type VerificationRepository struct {
	db *sql.DB
}

// NewVerificationRepository creates a new SQLite verification repository.
func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Record inserts a verification, assigning ID and CheckedAt when empty.
func (r *VerificationRepository) Record(ctx context.Context, v *repository.Verification) error {
	if v == nil || v.DocumentID == "" {
		return fmt.Errorf("%w: document ID cannot be empty", repository.ErrInvalidInput)
	}

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CheckedAt.IsZero() {
		v.CheckedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO verifications (
			id, document_id, requested_hash, is_valid, has_changed,
			verification_hash, error, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := execWithRetry(ctx, r.db, query,
		v.ID,
		v.DocumentID,
		v.RequestedHash,
		v.IsValid,
		v.HasChanged,
		nullString(v.VerificationHash),
		nullString(v.Error),
		formatTime(v.CheckedAt),
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

// ListByDocument returns the lookups of one document, newest first.
func (r *VerificationRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]repository.Verification, error) {
	limit = repository.PaginationOptions{Limit: limit}.Normalized().Limit

	query := `
		SELECT id, document_id, requested_hash, is_valid, has_changed,
			verification_hash, error, checked_at
		FROM verifications
		WHERE document_id = ?
		ORDER BY checked_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verifications: %w", err)
	}
	defer rows.Close()

	var result []repository.Verification
	for rows.Next() {
		var v repository.Verification
		var verificationHash, errMsg sql.NullString
		var checkedAt string

		if err := rows.Scan(
			&v.ID,
			&v.DocumentID,
			&v.RequestedHash,
			&v.IsValid,
			&v.HasChanged,
			&verificationHash,
			&errMsg,
			&checkedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}

		v.VerificationHash = verificationHash.String
		v.Error = errMsg.String
		if v.CheckedAt, err = parseTime("checked_at", checkedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}

	return result, rows.Err()
}

var _ repository.VerificationRepository = (*VerificationRepository)(nil)
