package repository

import (
	"context"
	"time"
)

// UploadRepository stores the local history of upload attempts.
type UploadRepository interface {
	// Create inserts an upload. ID and CreatedAt are assigned when empty.
	Create(ctx context.Context, upload *Upload) error

	// GetByID returns the upload with the given ID or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Upload, error)

	// GetByTransactionHash returns the most recent upload anchored by hash
	// or ErrNotFound. The comparison ignores case.
	GetByTransactionHash(ctx context.Context, hash string) (*Upload, error)

	// MarkConfirmed sets every upload anchored by hash to confirmed.
	// Returns ErrNotFound when no upload carries the hash.
	MarkConfirmed(ctx context.Context, hash string, confirmedAt time.Time) error

	// List returns uploads newest first, and the total number matching filter.
	List(ctx context.Context, filter UploadFilter, page PaginationOptions) ([]Upload, int, error)
}
