package univerify

import (
	"context"
	"fmt"
	"sync"
)

// TokenStore persists the session token across process restarts.
type TokenStore interface {
	// LoadToken returns the stored token and user, or an empty token if none.
	LoadToken(ctx context.Context) (string, *User, error)
	// SaveToken replaces the stored token and user.
	SaveToken(ctx context.Context, token string, user *User) error
	// ClearToken removes the stored token.
	ClearToken(ctx context.Context) error
}

// Session is the single current-session state shared by all requests of a
// Client: the bearer token, the logged-in user and the wallet signer.
type Session struct {
	mu     sync.RWMutex
	token  string
	user   *User
	signer Signer
	store  TokenStore
}

// NewSession creates a session and loads any persisted token from store.
// Both store and signer may be nil.
func NewSession(ctx context.Context, store TokenStore, signer Signer) (*Session, error) {
	s := &Session{store: store, signer: signer}
	if store == nil {
		return s, nil
	}

	token, user, err := store.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session token: %w", err)
	}
	s.token = token
	s.user = user
	return s, nil
}

// NewStaticSession creates an in-memory session holding token.
func NewStaticSession(token string, signer Signer) *Session {
	return &Session{token: token, signer: signer}
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the logged-in user, nil if unknown.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Signer returns the wallet signer, nil if none is configured.
func (s *Session) Signer() Signer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signer
}

// WalletAddress returns the signer address, falling back to the user's wallet.
func (s *Session) WalletAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signer != nil {
		return s.signer.Address()
	}
	if s.user != nil {
		return s.user.WalletAddress
	}
	return ""
}

// SetToken replaces the token and user and persists them.
func (s *Session) SetToken(ctx context.Context, token string, user *User) error {
	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	store := s.store
	s.mu.Unlock()

	if store != nil {
		if err := store.SaveToken(ctx, token, user); err != nil {
			return fmt.Errorf("saving session token: %w", err)
		}
	}
	return nil
}

// Clear drops the token and user from memory and from the store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	store := s.store
	s.mu.Unlock()

	if store != nil {
		if err := store.ClearToken(ctx); err != nil {
			return fmt.Errorf("clearing session token: %w", err)
		}
	}
	return nil
}

// String returns a representation with the token redacted.
func (s *Session) String() string {
	tokenDisplay := "none"
	if s.Token() != "" {
		tokenDisplay = "***redacted***"
	}
	return fmt.Sprintf("Session(token=%s, wallet=%q)", tokenDisplay, s.WalletAddress())
}
