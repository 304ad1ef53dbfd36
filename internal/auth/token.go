package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoToken = errors.New("no access token available")
)

// expiryBuffer treats tokens that expire this soon as already expired.
const expiryBuffer = 30 * time.Second

// TokenManager supplies the bearer token sent with every request.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Token represents an access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Valid reports whether the token is usable. A zero ExpiresAt never expires.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token and is safe for concurrent use.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}

// StaticTokenManager serves a token supplied by the caller. It never obtains
// or refreshes tokens on its own.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager holding token with no expiry.
func NewStaticTokenManager(token string) *StaticTokenManager {
	store := NewTokenStore()
	if token != "" {
		store.Set(&Token{AccessToken: token, TokenType: "bearer"})
	}

	return &StaticTokenManager{store: store}
}

// GetToken returns the stored token.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", ErrNoToken
	}

	return token.AccessToken, nil
}

// RefreshToken is a no-op; a static token cannot be refreshed.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return nil
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}
