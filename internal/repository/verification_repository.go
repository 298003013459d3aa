package repository

import "context"

// VerificationRepository stores verification lookups.
type VerificationRepository interface {
	// Record inserts a verification. ID and CheckedAt are assigned when empty.
	Record(ctx context.Context, v *Verification) error

	// ListByDocument returns the lookups of one document, newest first.
	ListByDocument(ctx context.Context, documentID string, limit int) ([]Verification, error)
}
