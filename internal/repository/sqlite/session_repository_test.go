package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univerify/univerify/internal/repository"
	"github.com/univerify/univerify/internal/testutil"
	univerify "github.com/univerify/univerify/sdk/go"
)

func TestSessionRepository_EmptyByDefault(t *testing.T) {
	repo := NewSessionRepository(testutil.SetupTestDB(t))

	token, user, err := repo.LoadToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestSessionRepository_SaveLoadClear(t *testing.T) {
	repo := NewSessionRepository(testutil.SetupTestDB(t))
	ctx := context.Background()

	user := &univerify.User{ID: "u1", Name: "Ada", Email: "ada@example.edu", WalletAddress: "0xabc"}
	require.NoError(t, repo.SaveToken(ctx, "jwt-1", user))

	token, got, err := repo.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", token)
	assert.Equal(t, user, got)

	// Second save replaces the row
	require.NoError(t, repo.SaveToken(ctx, "jwt-2", nil))
	token, got, err = repo.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", token)
	assert.Nil(t, got)

	require.NoError(t, repo.ClearToken(ctx))
	token, got, err = repo.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, got)

	// Clearing twice is fine
	require.NoError(t, repo.ClearToken(ctx))
}

func TestSessionRepository_SaveEmptyToken(t *testing.T) {
	repo := NewSessionRepository(testutil.SetupTestDB(t))

	err := repo.SaveToken(context.Background(), "", nil)
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestSessionRepository_BacksSDKSession(t *testing.T) {
	repo := NewSessionRepository(testutil.SetupTestDB(t))
	ctx := context.Background()

	session, err := univerify.NewSession(ctx, repo, nil)
	require.NoError(t, err)
	require.NoError(t, session.SetToken(ctx, "jwt-session", &univerify.User{ID: "u2"}))

	reloaded, err := univerify.NewSession(ctx, repo, nil)
	require.NoError(t, err)
	assert.Equal(t, "jwt-session", reloaded.Token())
	assert.Equal(t, "u2", reloaded.User().ID)

	require.NoError(t, reloaded.Clear(ctx))
	token, _, err := repo.LoadToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
