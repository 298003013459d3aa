// Package repository defines interfaces for the CLI's local data: the
// persisted session token, the history of upload attempts and the log of
// verification lookups.
//
// The SQLite implementations live in the sqlite subpackage.
package repository

import (
	"errors"
	"time"
)

// Common errors returned by repository operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateKey is returned when an insert violates a uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNilDatabase is returned when a nil database connection is provided.
	ErrNilDatabase = errors.New("nil database connection")
)

// UploadStatus is the outcome recorded for an upload attempt.
type UploadStatus string

const (
	// UploadStatusConfirmed means the anchoring transaction confirmed.
	UploadStatusConfirmed UploadStatus = "confirmed"
	// UploadStatusUnconfirmed means the backend accepted the file but the
	// transaction did not confirm within the retry budget.
	UploadStatusUnconfirmed UploadStatus = "unconfirmed"
	// UploadStatusFailed means the attempt failed before a transaction existed.
	UploadStatusFailed UploadStatus = "failed"
)

// Valid reports whether s is a known status.
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusConfirmed, UploadStatusUnconfirmed, UploadStatusFailed:
		return true
	}
	return false
}

// Upload is one row of local upload history.
type Upload struct {
	ID              string       `json:"id"`
	Filename        string       `json:"filename"`
	Size            int64        `json:"size"`
	ContentType     string       `json:"content_type"`
	TransactionHash string       `json:"transaction_hash,omitempty"`
	FileID          string       `json:"file_id,omitempty"`
	URL             string       `json:"url,omitempty"`
	Status          UploadStatus `json:"status"`
	Error           string       `json:"error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	ConfirmedAt     *time.Time   `json:"confirmed_at,omitempty"`
}

// UploadFilter narrows List results. Zero values match everything.
type UploadFilter struct {
	// Status restricts results to one status.
	Status UploadStatus
	// Filename matches a substring of the filename.
	Filename string
}

// Verification is one recorded verification lookup.
type Verification struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"document_id"`
	RequestedHash    string    `json:"requested_hash,omitempty"`
	IsValid          bool      `json:"is_valid"`
	HasChanged       bool      `json:"has_changed"`
	VerificationHash string    `json:"verification_hash,omitempty"`
	Error            string    `json:"error,omitempty"`
	CheckedAt        time.Time `json:"checked_at"`
}

// PaginationOptions provides common pagination parameters.
type PaginationOptions struct {
	Limit  int
	Offset int
}

// DefaultPagination returns default pagination options (limit 20, offset 0).
func DefaultPagination() PaginationOptions {
	return PaginationOptions{
		Limit:  20,
		Offset: 0,
	}
}

// Normalized clamps the limit to 1..500 and the offset to >= 0.
func (p PaginationOptions) Normalized() PaginationOptions {
	if p.Limit <= 0 {
		p.Limit = DefaultPagination().Limit
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
