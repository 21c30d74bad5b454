package ebay

import (
	"fmt"
	"strings"
)

// AuthError reports a failed token exchange or refresh. RequiresReauth is
// set for invalid/expired grant responses, which no amount of retrying
// will fix; the user has to connect their account again.
type AuthError struct {
	Op             string // "exchange" or "refresh"
	StatusCode     int
	Body           string
	RequiresReauth bool
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ebay token %s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// newAuthError classifies the upstream OAuth error body.
func newAuthError(op string, status int, body string) *AuthError {
	lower := strings.ToLower(body)
	return &AuthError{
		Op:         op,
		StatusCode: status,
		Body:       body,
		RequiresReauth: strings.Contains(lower, "invalid_grant") ||
			strings.Contains(lower, "refresh token is invalid") ||
			status == 400 && strings.Contains(lower, "grant"),
	}
}

// APIError reports a failed Trading API call: a transport-level non-2xx
// response, or an error envelope found inside an otherwise successful one.
type APIError struct {
	StatusCode int // HTTP status as signaled; 200 for in-envelope errors
	Errors     []apiErrorEntry
	Message    string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, entry := range e.Errors {
			m := entry.LongMessage
			if m == "" {
				m = entry.ShortMessage
			}
			msgs = append(msgs, m)
		}
		return fmt.Sprintf("ebay api error (status %d): %s", e.StatusCode, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("ebay api error (status %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is worth another attempt.
// Client-side rejections (bad request, bad credentials) are terminal.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case 400, 401, 403:
		return false
	}
	return true
}
