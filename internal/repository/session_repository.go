package repository

import (
	"context"

	univerify "github.com/univerify/univerify/sdk/go"
)

// SessionRepository persists the single CLI session. It satisfies
// univerify.TokenStore so a Session can load and save through it directly.
type SessionRepository interface {
	// LoadToken returns the stored token and user. An empty token and nil
	// user mean nobody is logged in.
	LoadToken(ctx context.Context) (string, *univerify.User, error)

	// SaveToken replaces the stored token and user.
	SaveToken(ctx context.Context, token string, user *univerify.User) error

	// ClearToken removes the stored token. Clearing an empty session is not an error.
	ClearToken(ctx context.Context) error
}

var _ univerify.TokenStore = (SessionRepository)(nil)
