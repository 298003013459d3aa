package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/univerify/univerify/internal/metrics"
	"github.com/univerify/univerify/internal/repository"
	univerify "github.com/univerify/univerify/sdk/go"
)

// defaultUploadConcurrency bounds UploadMany.
const defaultUploadConcurrency = 4

// UploadParams configures Upload and UploadMany.
type UploadParams struct {
	Folder      string
	Description string
	// OnProgress receives the progress of Upload.
	OnProgress func(univerify.UploadProgress)
	// OnFileProgress receives the progress of every file of UploadMany.
	OnFileProgress func(path string, p univerify.UploadProgress)
	// Concurrency bounds UploadMany (default 4).
	Concurrency int
}

// UploadOutcome is the result of one file of UploadMany.
type UploadOutcome struct {
	Path   string
	Result *univerify.UploadResult
	Err    error
}

// Upload uploads one document and records the attempt in the history,
// the metrics and, on success, the receipt archive.
func (a *App) Upload(ctx context.Context, path string, params UploadParams) (*univerify.UploadResult, error) {
	opts := a.UploadOptions()
	opts.Folder = params.Folder
	opts.Description = params.Description

	// Set once the backend accepted the upload
	var txHash string
	opts.OnProgress = func(p univerify.UploadProgress) {
		if p.TransactionHash != "" {
			txHash = p.TransactionHash
		}
		if params.OnProgress != nil {
			params.OnProgress(p)
		}
	}

	attempts := 0
	opts.Confirmation.OnAttempt = func(at univerify.ConfirmAttempt) {
		attempts = at.Attempt
	}

	result, err := a.Client.Upload(ctx, path, opts)
	if attempts > 0 {
		metrics.ConfirmationAttempts.Observe(float64(attempts))
	}

	record := newUploadRecord(path, txHash, result, err)
	metrics.UploadsTotal.WithLabelValues(string(record.Status)).Inc()
	if err := a.Repos.Uploads.Create(context.WithoutCancel(ctx), record); err != nil {
		a.Logger.Error("failed to record upload history", "filename", record.Filename, "error", err)
	}

	if err != nil {
		a.Logger.Warn("upload failed",
			"filename", record.Filename,
			"status", record.Status,
			"transaction_hash", record.TransactionHash,
			"error", err,
		)
		return nil, err
	}

	metrics.UploadSizeBytes.Observe(float64(record.Size))
	a.Logger.Info("document uploaded",
		"filename", record.Filename,
		"file_id", result.File.ID,
		"transaction_hash", result.Blockchain.Hash,
	)

	if a.Archive != nil {
		link := a.VerificationLink(result.File.ID, result.Blockchain.Hash)
		key, err := a.Archive.SaveUpload(ctx, record.Filename, result, link)
		if err != nil {
			metrics.ErrorsTotal.WithLabelValues("receipt").Inc()
			a.Logger.Error("failed to archive upload receipt", "transaction_hash", result.Blockchain.Hash, "error", err)
		} else {
			a.Logger.Debug("upload receipt archived", "key", key)
		}
	}

	return result, nil
}

// UploadMany uploads paths concurrently. Unlike the client's UploadMany every
// file is attempted and recorded; outcomes keep input order and the returned
// error joins the individual failures.
func (a *App) UploadMany(ctx context.Context, paths []string, params UploadParams) ([]UploadOutcome, error) {
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultUploadConcurrency
	}

	outcomes := make([]UploadOutcome, len(paths))
	var g errgroup.Group
	g.SetLimit(concurrency)

	var mu sync.Mutex
	for i, path := range paths {
		fileParams := params
		fileParams.OnProgress = nil
		if params.OnFileProgress != nil {
			fileParams.OnProgress = func(p univerify.UploadProgress) {
				mu.Lock()
				defer mu.Unlock()
				params.OnFileProgress(path, p)
			}
		}

		g.Go(func() error {
			result, err := a.Upload(ctx, path, fileParams)
			if err != nil {
				err = fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
			}
			outcomes[i] = UploadOutcome{Path: path, Result: result, Err: err}
			return nil
		})
	}
	g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}

// newUploadRecord maps an upload outcome to a history row. txHash is the
// transaction hash reported by the backend, empty when the upload was never
// accepted.
func newUploadRecord(path, txHash string, result *univerify.UploadResult, err error) *repository.Upload {
	record := &repository.Upload{
		Filename: filepath.Base(path),
	}
	if info, statErr := os.Stat(path); statErr == nil {
		record.Size = info.Size()
		if mtype, detectErr := mimetype.DetectFile(path); detectErr == nil {
			record.ContentType, _, _ = strings.Cut(mtype.String(), ";")
		}
	}

	var timeout *univerify.ConfirmationTimeoutError
	if errors.As(err, &timeout) && timeout.Hash != "" {
		txHash = timeout.Hash
	}

	switch {
	case err == nil:
		now := time.Now().UTC()
		record.Status = repository.UploadStatusConfirmed
		record.TransactionHash = result.Blockchain.Hash
		record.FileID = result.File.ID
		record.URL = result.File.URL
		record.ConfirmedAt = &now
	case txHash != "":
		// Accepted and anchored, but confirmation was not observed
		record.Status = repository.UploadStatusUnconfirmed
		record.TransactionHash = txHash
		record.Error = err.Error()
	default:
		record.Status = repository.UploadStatusFailed
		record.Error = err.Error()
	}
	return record
}

// WaitForConfirmation polls hash with the configured options and marks
// matching history rows confirmed.
func (a *App) WaitForConfirmation(ctx context.Context, hash string, onAttempt func(univerify.ConfirmAttempt)) (*univerify.TransactionRecord, error) {
	opts := a.ConfirmOptions()
	attempts := 0
	opts.OnAttempt = func(at univerify.ConfirmAttempt) {
		attempts = at.Attempt
		if onAttempt != nil {
			onAttempt(at)
		}
	}

	record, err := a.Client.WaitForConfirmation(ctx, hash, opts)
	if attempts > 0 {
		metrics.ConfirmationAttempts.Observe(float64(attempts))
	}
	if err != nil {
		return nil, err
	}

	err = a.Repos.Uploads.MarkConfirmed(ctx, hash, time.Now().UTC())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a.Logger.Debug("confirmed transaction is not in the local history", "transaction_hash", hash)
	case err != nil:
		a.Logger.Error("failed to update upload history", "transaction_hash", hash, "error", err)
	}
	return record, nil
}

// Verify resolves a document and records the lookup in the metrics, the
// history and, when enabled, the receipt archive. Recording failures are
// logged and never change the result.
func (a *App) Verify(ctx context.Context, documentID, hash string) univerify.VerificationResult {
	result := a.Client.VerifyDocument(ctx, documentID, hash)
	metrics.RecordVerification(result)

	record := &repository.Verification{
		DocumentID:    documentID,
		RequestedHash: hash,
		IsValid:       result.IsValid,
		Error:         result.Error,
	}
	if result.Document != nil {
		record.HasChanged = result.Document.HasChanged
		record.VerificationHash = result.Document.VerificationHash
	}
	if documentID != "" {
		if err := a.Repos.Verifications.Record(ctx, record); err != nil {
			a.Logger.Error("failed to record verification", "document_id", documentID, "error", err)
		}
	}

	if a.Archive != nil && documentID != "" {
		if _, err := a.Archive.SaveVerification(ctx, documentID, result); err != nil {
			metrics.ErrorsTotal.WithLabelValues("receipt").Inc()
			a.Logger.Error("failed to archive verification receipt", "document_id", documentID, "error", err)
		}
	}

	a.Logger.Debug("document verified",
		"document_id", documentID,
		"result", metrics.VerificationResultLabel(result),
	)
	return result
}

// History lists the local upload history, newest first.
func (a *App) History(ctx context.Context, filter repository.UploadFilter, page repository.PaginationOptions) ([]repository.Upload, int, error) {
	return a.Repos.Uploads.List(ctx, filter, page)
}

// VerificationHistory lists the recorded lookups of one document, newest first.
func (a *App) VerificationHistory(ctx context.Context, documentID string, limit int) ([]repository.Verification, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, fmt.Errorf("document ID is required")
	}
	return a.Repos.Verifications.ListByDocument(ctx, documentID, limit)
}
