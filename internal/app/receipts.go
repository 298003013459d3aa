package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/univerify/univerify/internal/config"
	"github.com/univerify/univerify/internal/storage"
	"github.com/univerify/univerify/internal/storage/filesystem"
	"github.com/univerify/univerify/internal/storage/s3"
)

// ErrReceiptsDisabled is returned by Receipts when no receipt store is
// configured.
var ErrReceiptsDisabled = errors.New("receipt store is disabled (set UNIVERIFY_RECEIPT_STORE)")

// Receipts returns the receipt archive.
func (a *App) Receipts() (*storage.Archive, error) {
	if a.Archive == nil {
		return nil, ErrReceiptsDisabled
	}
	return a.Archive, nil
}

// openArchive returns the configured receipt archive, or nil when receipts
// are disabled.
func openArchive(ctx context.Context, cfg *config.Config) (*storage.Archive, error) {
	switch cfg.ReceiptStore {
	case config.ReceiptStoreFilesystem:
		backend, err := filesystem.NewFilesystemStorage(cfg.ReceiptDir)
		if err != nil {
			return nil, fmt.Errorf("opening receipt directory: %w", err)
		}
		return storage.NewArchive(backend), nil

	case config.ReceiptStoreS3:
		backend, err := s3.NewS3Storage(ctx, s3.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("opening receipt bucket: %w", err)
		}
		return storage.NewArchive(backend), nil

	default:
		return nil, nil
	}
}
