package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univerify/univerify/internal/repository"
	"github.com/univerify/univerify/internal/testutil"
)

func TestVerificationRepository_RecordAndList(t *testing.T) {
	repo := NewVerificationRepository(testutil.SetupTestDB(t))
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []*repository.Verification{
		{DocumentID: "arTx1", RequestedHash: "0xaa", IsValid: true, VerificationHash: "0xAA", CheckedAt: base},
		{DocumentID: "arTx1", RequestedHash: "0xaa", IsValid: true, HasChanged: true, VerificationHash: "0xBB", CheckedAt: base.Add(time.Minute)},
		{DocumentID: "arTx1", IsValid: false, Error: "Document not found", CheckedAt: base.Add(2 * time.Minute)},
		{DocumentID: "arTx2", IsValid: true, CheckedAt: base},
	}
	for _, v := range records {
		require.NoError(t, repo.Record(ctx, v))
		assert.NotEmpty(t, v.ID)
	}

	got, err := repo.ListByDocument(ctx, "arTx1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.False(t, got[0].IsValid)
	assert.Equal(t, "Document not found", got[0].Error)
	assert.True(t, got[1].HasChanged)
	assert.Equal(t, "0xBB", got[1].VerificationHash)
	assert.True(t, got[2].IsValid)
	assert.False(t, got[2].HasChanged)
	assert.True(t, base.Equal(got[2].CheckedAt))

	limited, err := repo.ListByDocument(ctx, "arTx1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ListByDocument(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestVerificationRepository_RecordAssignsCheckedAt(t *testing.T) {
	repo := NewVerificationRepository(testutil.SetupTestDB(t))

	v := &repository.Verification{DocumentID: "arTx1"}
	require.NoError(t, repo.Record(context.Background(), v))
	assert.False(t, v.CheckedAt.IsZero())
}

func TestVerificationRepository_RecordValidation(t *testing.T) {
	repo := NewVerificationRepository(testutil.SetupTestDB(t))
	ctx := context.Background()

	assert.ErrorIs(t, repo.Record(ctx, nil), repository.ErrInvalidInput)
	assert.ErrorIs(t, repo.Record(ctx, &repository.Verification{}), repository.ErrInvalidInput)
}
