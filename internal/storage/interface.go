// Package storage archives JSON receipts of uploads and verifications on a
// pluggable backend (local filesystem or S3).
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a receipt key does not exist.
var ErrNotFound = errors.New("receipt not found")

// Backend stores small objects by slash-separated key.
type Backend interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object stored under key or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// StorageError represents errors from storage operations with additional context.
type StorageError struct {
	Op      string // Operation that failed (e.g., "Put", "Get", "Delete")
	Path    string // Key involved
	Err     error  // Underlying error
	Message string // Human-readable message
}

func (e *StorageError) Error() string {
	if e.Message != "" {
		return e.Op + " " + e.Path + ": " + e.Message
	}
	if e.Err == nil {
		return e.Op + " " + e.Path
	}
	if e.Path != "" {
		return e.Op + " " + e.Path + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError with the given details.
func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// NewStorageErrorWithMessage creates a new StorageError with a custom message.
func NewStorageErrorWithMessage(op, path string, err error, message string) *StorageError {
	return &StorageError{
		Op:      op,
		Path:    path,
		Err:     err,
		Message: message,
	}
}
