package ebay

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Scopes requested during authorization. Selling data requires the
// fulfillment read scope on top of the base scope.
var defaultScopes = []string{
	"https://api.ebay.com/oauth/api_scope",
	"https://api.ebay.com/oauth/api_scope/sell.fulfillment.readonly",
}

// Tokens is a granted OAuth token pair.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Expired reports whether the access token is past (or within a minute of)
// its expiry.
func (t Tokens) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now.Add(time.Minute))
}

type oauthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Config holds eBay application credentials and endpoint selection.
// AuthBaseURL/APIBaseURL are derived from Sandbox when left empty; tests
// point them at a local server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Sandbox      bool
	AuthBaseURL  string
	APIBaseURL   string
}

func (c Config) authBaseURL() string {
	if c.AuthBaseURL != "" {
		return c.AuthBaseURL
	}
	if c.Sandbox {
		return "https://auth.sandbox.ebay.com"
	}
	return "https://auth.ebay.com"
}

func (c Config) apiBaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	if c.Sandbox {
		return "https://api.sandbox.ebay.com"
	}
	return "https://api.ebay.com"
}

// GenerateAuthURL builds the authorization redirect URL. The caller's
// opaque state string rides along unchanged for CSRF validation on the
// way back. Pure; no network.
func (c *Client) GenerateAuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.config.ClientID)
	params.Set("response_type", "code")
	params.Set("redirect_uri", c.config.RedirectURI)
	params.Set("scope", strings.Join(defaultScopes, " "))
	params.Set("state", state)

	return fmt.Sprintf("%s/oauth2/authorize?%s", c.config.authBaseURL(), params.Encode())
}

// ExchangeCodeForTokens trades an authorization code for a token pair.
func (c *Client) ExchangeCodeForTokens(ctx context.Context, code string) (Tokens, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.config.RedirectURI)

	return c.tokenRequest(ctx, "exchange", data)
}

// RefreshAccessToken trades a refresh token for a fresh access token. An
// invalid_grant-class response comes back as an AuthError with
// RequiresReauth set; everything else is transient.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (Tokens, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("scope", strings.Join(defaultScopes, " "))

	return c.tokenRequest(ctx, "refresh", data)
}

func (c *Client) tokenRequest(ctx context.Context, op string, data url.Values) (Tokens, error) {
	endpoint := c.config.authBaseURL() + "/identity/v1/oauth2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return Tokens{}, fmt.Errorf("creating token request: %w", err)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(c.config.ClientID + ":" + c.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Tokens{}, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Tokens{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Tokens{}, newAuthError(op, resp.StatusCode, string(body))
	}

	var parsed oauthResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Tokens{}, fmt.Errorf("parsing token response: %w", err)
	}

	return Tokens{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
		TokenType:    parsed.TokenType,
	}, nil
}

// ValidateToken probes the identity endpoint with the access token. Token
// validity is advisory here, so network failures count as invalid rather
// than erroring out.
func (c *Client) ValidateToken(ctx context.Context, accessToken string) bool {
	endpoint := c.config.apiBaseURL() + "/commerce/identity/v1/user/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// GenerateState produces a random opaque state string for the OAuth flow.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateState checks the round-tripped state against the expected value
// in constant time.
func ValidateState(state, expected string) bool {
	return state != "" && subtle.ConstantTimeCompare([]byte(state), []byte(expected)) == 1
}
