package ebay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoTokens is returned when no token pair has been installed yet.
var ErrNoTokens = errors.New("ebay: no tokens available, authentication required")

// Refresh ahead of expiry so an in-flight sync never crosses the line
// mid-run.
const refreshBuffer = 5 * time.Minute

// TokenManager holds the seller's token pair and refreshes the access
// token ahead of expiry. Safe for concurrent use by the sync runner, the
// scheduler, and request handlers.
type TokenManager struct {
	client *Client

	mu     sync.Mutex
	tokens Tokens
	loaded bool
	now    func() time.Time
}

// NewTokenManager creates a manager around the OAuth client.
func NewTokenManager(client *Client) *TokenManager {
	return &TokenManager{client: client, now: time.Now}
}

// SetTokens installs a freshly granted token pair.
func (m *TokenManager) SetTokens(t Tokens) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	m.loaded = true
}

// HasTokens reports whether a token pair is installed.
func (m *TokenManager) HasTokens() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// AccessToken returns a valid access token, refreshing when the current
// one is inside the expiry buffer. A refresh rejected as an invalid grant
// propagates as an AuthError with RequiresReauth set.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return "", ErrNoTokens
	}

	if m.tokens.ExpiresAt.After(m.now().Add(refreshBuffer)) {
		return m.tokens.AccessToken, nil
	}

	refreshed, err := m.client.RefreshAccessToken(ctx, m.tokens.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	// eBay does not rotate the refresh token on refresh; keep the old one
	// when the response omits it.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = m.tokens.RefreshToken
	}
	m.tokens = refreshed

	return m.tokens.AccessToken, nil
}
