package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	univerify "github.com/univerify/univerify/sdk/go"
)

// UploadReceipt records a successful upload and how to verify it later.
type UploadReceipt struct {
	ID               string                  `json:"id"`
	CreatedAt        time.Time               `json:"created_at"`
	Filename         string                  `json:"filename"`
	Result           *univerify.UploadResult `json:"result"`
	VerificationLink string                  `json:"verification_link,omitempty"`
}

// VerificationReceipt records the answer to one verification lookup.
type VerificationReceipt struct {
	ID         string                       `json:"id"`
	CheckedAt  time.Time                    `json:"checked_at"`
	DocumentID string                       `json:"document_id"`
	Result     univerify.VerificationResult `json:"result"`
}

// Archive writes receipts to a Backend.
type Archive struct {
	backend Backend
	now     func() time.Time
}

// NewArchive creates an Archive over backend.
func NewArchive(backend Backend) *Archive {
	return &Archive{backend: backend, now: time.Now}
}

// SaveUpload stores the receipt of a completed upload under UploadKey and
// returns the key.
func (a *Archive) SaveUpload(ctx context.Context, filename string, result *univerify.UploadResult, link string) (string, error) {
	if result == nil || result.Blockchain.Hash == "" {
		return "", fmt.Errorf("upload receipt requires a transaction hash")
	}

	receipt := UploadReceipt{
		ID:               uuid.NewString(),
		CreatedAt:        a.now().UTC(),
		Filename:         filename,
		Result:           result,
		VerificationLink: link,
	}
	key := UploadKey(result.Blockchain.Hash)
	return key, a.put(ctx, key, receipt)
}

// LoadUpload returns the receipt stored for txHash.
func (a *Archive) LoadUpload(ctx context.Context, txHash string) (*UploadReceipt, error) {
	data, err := a.backend.Get(ctx, UploadKey(txHash))
	if err != nil {
		return nil, err
	}
	var receipt UploadReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("decoding upload receipt: %w", err)
	}
	return &receipt, nil
}

// SaveVerification stores the receipt of a verification lookup and returns
// its key.
func (a *Archive) SaveVerification(ctx context.Context, documentID string, result univerify.VerificationResult) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("verification receipt requires a document ID")
	}

	checkedAt := a.now().UTC()
	receipt := VerificationReceipt{
		ID:         uuid.NewString(),
		CheckedAt:  checkedAt,
		DocumentID: documentID,
		Result:     result,
	}
	key := VerificationKey(documentID, checkedAt.UnixNano())
	return key, a.put(ctx, key, receipt)
}

// DeleteUpload removes the receipt stored for txHash.
func (a *Archive) DeleteUpload(ctx context.Context, txHash string) error {
	key := UploadKey(txHash)
	if _, err := a.backend.Get(ctx, key); err != nil {
		return err
	}
	return a.backend.Delete(ctx, key)
}

// LoadVerification returns the verification receipt stored under key, as
// returned by SaveVerification or ListVerifications.
func (a *Archive) LoadVerification(ctx context.Context, key string) (*VerificationReceipt, error) {
	if !strings.HasPrefix(key, VerificationPrefix) {
		return nil, fmt.Errorf("not a verification receipt key: %s", key)
	}
	data, err := a.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var receipt VerificationReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("decoding verification receipt: %w", err)
	}
	return &receipt, nil
}

// ListUploads returns the keys of all upload receipts.
func (a *Archive) ListUploads(ctx context.Context) ([]string, error) {
	return a.backend.List(ctx, UploadPrefix)
}

// ListVerifications returns the keys of all verification receipts.
func (a *Archive) ListVerifications(ctx context.Context) ([]string, error) {
	return a.backend.List(ctx, VerificationPrefix)
}

func (a *Archive) put(ctx context.Context, key string, receipt any) error {
	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding receipt: %w", err)
	}
	if err := a.backend.Put(ctx, key, data); err != nil {
		return fmt.Errorf("storing receipt: %w", err)
	}
	return nil
}
