package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/univerify/univerify/internal/repository"
)

const uploadColumns = `id, filename, size, content_type, transaction_hash, file_id, url,
	status, error, created_at, confirmed_at`

// UploadRepository implements repository.UploadRepository for SQLite.
type UploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new SQLite upload repository.
func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create inserts an upload, assigning ID and CreatedAt when empty.
func (r *UploadRepository) Create(ctx context.Context, upload *repository.Upload) error {
	if upload == nil {
		return fmt.Errorf("%w: upload cannot be nil", repository.ErrInvalidInput)
	}
	if upload.Filename == "" {
		return fmt.Errorf("%w: filename cannot be empty", repository.ErrInvalidInput)
	}
	if !upload.Status.Valid() {
		return fmt.Errorf("%w: unknown upload status %q", repository.ErrInvalidInput, upload.Status)
	}
	if upload.Size < 0 {
		return fmt.Errorf("%w: size cannot be negative", repository.ErrInvalidInput)
	}

	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}

	var confirmedAt sql.NullString
	if upload.ConfirmedAt != nil {
		confirmedAt = sql.NullString{String: formatTime(*upload.ConfirmedAt), Valid: true}
	}

	query := `INSERT INTO uploads (` + uploadColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := execWithRetry(ctx, r.db, query,
		upload.ID,
		upload.Filename,
		upload.Size,
		upload.ContentType,
		nullString(upload.TransactionHash),
		nullString(upload.FileID),
		nullString(upload.URL),
		string(upload.Status),
		nullString(upload.Error),
		formatTime(upload.CreatedAt),
		confirmedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}
	return nil
}

// GetByID returns the upload with the given ID.
func (r *UploadRepository) GetByID(ctx context.Context, id string) (*repository.Upload, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = ?`, id)
	return scanUpload(row)
}

// GetByTransactionHash returns the most recent upload anchored by hash.
func (r *UploadRepository) GetByTransactionHash(ctx context.Context, hash string) (*repository.Upload, error) {
	if hash == "" {
		return nil, fmt.Errorf("%w: transaction hash cannot be empty", repository.ErrInvalidInput)
	}
	query := `SELECT ` + uploadColumns + ` FROM uploads
		WHERE transaction_hash = ? COLLATE NOCASE
		ORDER BY created_at DESC LIMIT 1`
	return scanUpload(r.db.QueryRowContext(ctx, query, hash))
}

// MarkConfirmed sets every upload anchored by hash to confirmed.
func (r *UploadRepository) MarkConfirmed(ctx context.Context, hash string, confirmedAt time.Time) error {
	if hash == "" {
		return fmt.Errorf("%w: transaction hash cannot be empty", repository.ErrInvalidInput)
	}

	result, err := execWithRetry(ctx, r.db,
		`UPDATE uploads SET status = ?, confirmed_at = ?, error = NULL WHERE transaction_hash = ? COLLATE NOCASE`,
		string(repository.UploadStatusConfirmed), formatTime(confirmedAt), hash)
	if err != nil {
		return fmt.Errorf("failed to update upload: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns uploads newest first, and the total count matching filter.
func (r *UploadRepository) List(ctx context.Context, filter repository.UploadFilter, page repository.PaginationOptions) ([]repository.Upload, int, error) {
	page = page.Normalized()

	var conditions []string
	var args []any
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Filename != "" {
		conditions = append(conditions, `filename LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLikePattern(filter.Filename)+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM uploads"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count uploads: %w", err)
	}

	query := `SELECT ` + uploadColumns + ` FROM uploads` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]repository.Upload, 0, page.Limit)
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, 0, err
		}
		uploads = append(uploads, *upload)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate uploads: %w", err)
	}

	return uploads, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUpload(row rowScanner) (*repository.Upload, error) {
	var upload repository.Upload
	var txHash, fileID, url, errMsg, confirmedAt sql.NullString
	var status, createdAt string

	err := row.Scan(
		&upload.ID,
		&upload.Filename,
		&upload.Size,
		&upload.ContentType,
		&txHash,
		&fileID,
		&url,
		&status,
		&errMsg,
		&createdAt,
		&confirmedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}

	upload.TransactionHash = txHash.String
	upload.FileID = fileID.String
	upload.URL = url.String
	upload.Status = repository.UploadStatus(status)
	upload.Error = errMsg.String

	if upload.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if upload.ConfirmedAt, err = parseNullTime("confirmed_at", confirmedAt); err != nil {
		return nil, err
	}

	return &upload, nil
}

var _ repository.UploadRepository = (*UploadRepository)(nil)
