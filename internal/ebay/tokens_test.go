package ebay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenManagerNoTokens(t *testing.T) {
	manager := NewTokenManager(NewClient(Config{}))

	if manager.HasTokens() {
		t.Error("HasTokens = true before SetTokens")
	}
	if _, err := manager.AccessToken(context.Background()); !errors.Is(err, ErrNoTokens) {
		t.Errorf("AccessToken error = %v, want ErrNoTokens", err)
	}
}

func TestTokenManagerReturnsFreshToken(t *testing.T) {
	manager := NewTokenManager(NewClient(Config{}))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	manager.SetTokens(Tokens{
		AccessToken:  "fresh",
		RefreshToken: "rt",
		ExpiresAt:    now.Add(time.Hour),
	})

	got, err := manager.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken returned error: %v", err)
	}
	if got != "fresh" {
		t.Errorf("token = %q, want fresh (no refresh needed)", got)
	}
}

func TestTokenManagerRefreshesNearExpiry(t *testing.T) {
	refreshCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.Header().Set("Content-Type", "application/json")
		// eBay omits the refresh token on refresh responses.
		w.Write([]byte(`{"access_token":"renewed","expires_in":7200,"token_type":"User"}`))
	}))
	defer server.Close()

	client := NewClient(Config{ClientID: "app", ClientSecret: "secret", AuthBaseURL: server.URL})
	manager := NewTokenManager(client)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }
	client.now = func() time.Time { return now }

	manager.SetTokens(Tokens{
		AccessToken:  "stale",
		RefreshToken: "rt-original",
		ExpiresAt:    now.Add(2 * time.Minute), // inside the refresh buffer
	})

	got, err := manager.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken returned error: %v", err)
	}
	if got != "renewed" {
		t.Errorf("token = %q, want renewed", got)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", refreshCalls)
	}

	// The original refresh token survives a response that omitted one.
	manager.mu.Lock()
	rt := manager.tokens.RefreshToken
	manager.mu.Unlock()
	if rt != "rt-original" {
		t.Errorf("refresh token = %q, want rt-original preserved", rt)
	}

	// The renewed expiry keeps subsequent calls off the network.
	if _, err := manager.AccessToken(context.Background()); err != nil {
		t.Fatalf("second AccessToken returned error: %v", err)
	}
	if refreshCalls != 1 {
		t.Errorf("refresh calls after renewal = %d, want still 1", refreshCalls)
	}
}

func TestTokenManagerPropagatesReauth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := NewClient(Config{ClientID: "app", ClientSecret: "secret", AuthBaseURL: server.URL})
	manager := NewTokenManager(client)

	manager.SetTokens(Tokens{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(-time.Hour),
	})

	_, err := manager.AccessToken(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want wrapped AuthError", err)
	}
	if !authErr.RequiresReauth {
		t.Error("RequiresReauth = false, want true")
	}
}
