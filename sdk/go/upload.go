package univerify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxFileSize is the upload size limit used when none is configured.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// defaultUploadConcurrency bounds UploadMany when no limit is given.
const defaultUploadConcurrency = 4

// sniffLen is how much of a stream is read for MIME detection.
const sniffLen = 3072

// DefaultAllowedTypes is the MIME allow-list used when none is configured.
var DefaultAllowedTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/gif",
	"text/plain",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// UploadOptions configures a document upload.
type UploadOptions struct {
	// Folder is the optional storage folder.
	Folder string
	// Description is an optional free-text description.
	Description string
	// MaxSize is the size limit in bytes (default: DefaultMaxFileSize).
	MaxSize int64
	// AllowedTypes is the MIME allow-list (default: DefaultAllowedTypes).
	AllowedTypes []string
	// ContentType overrides MIME detection.
	ContentType string
	// Confirmation configures the transaction poller (default: DefaultConfirmOptions).
	Confirmation *ConfirmOptions
	// OnProgress is called on every progress change of a single upload.
	OnProgress func(UploadProgress)
	// OnFileProgress is called by UploadMany with the file path. Calls are
	// serialized across files.
	OnFileProgress func(path string, p UploadProgress)
	// Concurrency bounds UploadMany (default: 4).
	Concurrency int
}

func (o *UploadOptions) maxSize() int64 {
	if o.MaxSize > 0 {
		return o.MaxSize
	}
	return DefaultMaxFileSize
}

func (o *UploadOptions) allowedTypes() []string {
	if len(o.AllowedTypes) > 0 {
		return o.AllowedTypes
	}
	return DefaultAllowedTypes
}

func (o *UploadOptions) confirmOptions() ConfirmOptions {
	if o.Confirmation != nil {
		return *o.Confirmation
	}
	return DefaultConfirmOptions()
}

// progressTracker emits UploadProgress values, keeping progress
// non-decreasing within the attempt.
type progressTracker struct {
	onProgress func(UploadProgress)
	last       UploadProgress
}

func (t *progressTracker) emit(phase UploadPhase, progress int, message, hash string) {
	if progress < t.last.Progress {
		progress = t.last.Progress
	}
	t.last = UploadProgress{
		Phase:           phase,
		Progress:        progress,
		Message:         message,
		TransactionHash: hash,
	}
	if t.onProgress != nil {
		t.onProgress(t.last)
	}
}

func (t *progressTracker) fail(err error) {
	t.last = UploadProgress{
		Phase:           PhaseError,
		Progress:        t.last.Progress,
		Message:         "Upload failed",
		TransactionHash: t.last.TransactionHash,
		Error:           progressErrorMessage(err),
	}
	if t.onProgress != nil {
		t.onProgress(t.last)
	}
}

// progressErrorMessage renders a failure for UploadProgress.Error.
func progressErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	if errors.Is(err, ErrConfirmationTimeout) {
		return "Transaction confirmation timeout"
	}
	return err.Error()
}

// ValidateFile checks a file against a size limit and a MIME allow-list.
// Content types are compared without parameters and case-insensitively.
func ValidateFile(name string, size int64, contentType string, maxSize int64, allowedTypes []string) error {
	if size > maxSize {
		return &ValidationError{
			Field: "file",
			Message: fmt.Sprintf("File size (%.2fMB) exceeds maximum allowed size (%.2fMB)",
				float64(size)/1024/1024, float64(maxSize)/1024/1024),
			Err: ErrFileTooLarge,
		}
	}

	base := baseMediaType(contentType)
	for _, allowed := range allowedTypes {
		if baseMediaType(allowed) == base {
			return nil
		}
	}
	return &ValidationError{
		Field:   "file",
		Message: fmt.Sprintf("File type %s is not allowed. Allowed types: %s", base, strings.Join(allowedTypes, ", ")),
		Err:     ErrUnsupportedType,
	}
}

// quoteEscaper escapes a filename for a Content-Disposition header.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// fileHeader builds the part header of the "file" form field with an
// explicit content type.
func fileHeader(filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	return h
}

// baseMediaType strips parameters such as charset from a content type.
func baseMediaType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// detectContentType returns the allow-list entry matching the detected MIME
// type, or the detected type itself when nothing matches.
func detectContentType(head []byte, allowedTypes []string) string {
	mtype := mimetype.Detect(head)
	for _, allowed := range allowedTypes {
		if mtype.Is(baseMediaType(allowed)) {
			return allowed
		}
	}
	return mtype.String()
}

// Upload uploads the document at filePath and waits for its blockchain
// transaction to confirm.
//
// Example:
//
//	result, err := client.Upload(ctx, "/path/to/diploma.pdf", &univerify.UploadOptions{
//	    Folder: "diplomas",
//	    OnProgress: func(p univerify.UploadProgress) {
//	        fmt.Printf("%s: %d%%\n", p.Phase, p.Progress)
//	    },
//	})
func (c *Client) Upload(ctx context.Context, filePath string, opts *UploadOptions) (*UploadResult, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}
	tracker := &progressTracker{onProgress: opts.OnProgress}

	file, err := os.Open(filePath)
	if err != nil {
		err = fmt.Errorf("opening file: %w", err)
		tracker.fail(err)
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		err = fmt.Errorf("getting file info: %w", err)
		tracker.fail(err)
		return nil, err
	}

	return c.upload(ctx, filepath.Base(filePath), file, info.Size(), opts, tracker)
}

// UploadReader uploads size bytes read from r under the given filename.
func (c *Client) UploadReader(ctx context.Context, filename string, r io.Reader, size int64, opts *UploadOptions) (*UploadResult, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}
	return c.upload(ctx, filename, r, size, opts, &progressTracker{onProgress: opts.OnProgress})
}

func (c *Client) upload(ctx context.Context, filename string, r io.Reader, size int64, opts *UploadOptions, tracker *progressTracker) (*UploadResult, error) {
	tracker.emit(PhaseUploading, 10, "Validating file...", "")

	body, contentType, err := c.prepareUpload(ctx, filename, r, size, opts)
	if err != nil {
		tracker.fail(err)
		return nil, err
	}

	tracker.emit(PhaseUploading, 30, "Uploading file to server...", "")

	resp, err := c.request(ctx, http.MethodPost, "/api/upload/single", body, contentType, true)
	if err != nil {
		tracker.fail(err)
		return nil, err
	}

	var apiResp apiUploadResponse
	if err := handleResponse(resp, &apiResp); err != nil {
		tracker.fail(err)
		return nil, err
	}

	result := &UploadResult{
		File: FileMetadata{
			ID:           apiResp.Data.File.ID,
			OriginalName: apiResp.Data.File.OriginalName,
			Size:         apiResp.Data.File.Size,
			URL:          apiResp.Data.File.URL,
			UploadedBy:   apiResp.Data.File.UploadedBy,
			UserInfo:     apiResp.Data.File.UserInfo,
		},
		Blockchain: TransactionRecord{
			Hash:        apiResp.Data.Blockchain.TransactionHash,
			BlockNumber: apiResp.Data.Blockchain.BlockNumber,
			Status:      apiResp.Data.Blockchain.Status,
			Timestamp:   apiResp.Data.Blockchain.Timestamp,
		},
	}
	hash := result.Blockchain.Hash

	c.logger.DebugContext(ctx, "document uploaded",
		"file_id", result.File.ID,
		"filename", filename,
		"transaction_hash", hash,
	)

	tracker.emit(PhaseConfirming, 60, "Confirming blockchain transaction...", hash)

	confirmed, err := c.WaitForConfirmation(ctx, hash, opts.confirmOptions())
	if err != nil {
		tracker.fail(err)
		return nil, err
	}
	result.Confirmed = confirmed

	tracker.emit(PhaseCompleted, 100, "File uploaded successfully!", hash)
	return result, nil
}

// prepareUpload performs every local precondition and builds the multipart
// body. Nothing is sent over the network.
func (c *Client) prepareUpload(ctx context.Context, filename string, r io.Reader, size int64, opts *UploadOptions) (*bytes.Buffer, string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return nil, "", &ValidationError{Field: "filename", Message: "must be a plain file name"}
	}

	maxSize := opts.maxSize()
	allowed := opts.allowedTypes()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	head = head[:n]

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(head, allowed)
	}

	if err := ValidateFile(filename, size, contentType, maxSize, allowed); err != nil {
		return nil, "", err
	}

	if _, err := c.requireToken("file upload"); err != nil {
		return nil, "", err
	}

	signed, err := signConsent(ctx, c.session.Signer(), UploadConsentMessage)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreatePart(fileHeader(filename, contentType))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}

	// The declared size may understate the stream; the limit is enforced on
	// what is actually read.
	content := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(part, io.LimitReader(content, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("copying file: %w", err)
	}
	if written > maxSize {
		return nil, "", ValidateFile(filename, written, contentType, maxSize, allowed)
	}

	fields := []struct{ name, value string }{
		{"folder", opts.Folder},
		{"description", opts.Description},
		{"walletAddress", signed.WalletAddress},
		{"message", signed.Message},
		{"signature", signed.Signature},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// UploadMany uploads several documents concurrently. The first failure
// cancels the remaining uploads and is returned. Results keep input order.
func (c *Client) UploadMany(ctx context.Context, paths []string, opts *UploadOptions) ([]*UploadResult, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}
	if _, err := c.requireToken("file upload"); err != nil {
		return nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultUploadConcurrency
	}

	results := make([]*UploadResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var progressMu sync.Mutex
	for i, path := range paths {
		fileOpts := *opts
		fileOpts.OnProgress = nil
		if opts.OnFileProgress != nil {
			fileOpts.OnProgress = func(p UploadProgress) {
				progressMu.Lock()
				defer progressMu.Unlock()
				opts.OnFileProgress(path, p)
			}
		}

		g.Go(func() error {
			result, err := c.Upload(gctx, path, &fileOpts)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
