package familysdk

import (
	"time"
)

// Session represents an authenticated session. Access tokens are short-lived
// and there is no refresh flow; when the token expires the session's methods
// return ErrSessionExpired and the caller logs in again.
type Session struct {
	client *SDKClient

	accessToken string
	expiresAt   time.Time

	user        UserInfo
	memberships []MembershipInfo
	warning     string
}

// newSession creates a session from a confirmation or login response.
func newSession(client *SDKClient, resp *SessionResponse) *Session {
	expiresAt := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	// Subtract 30 seconds buffer so calls do not race the expiry
	expiresAt = expiresAt.Add(-30 * time.Second)

	return &Session{
		client:      client,
		accessToken: resp.AccessToken,
		expiresAt:   expiresAt,
		user:        resp.User,
		memberships: resp.Memberships,
		warning:     resp.Warning,
	}
}

// validToken returns the access token, or ErrSessionExpired once past the
// buffered expiry.
func (s *Session) validToken() (string, error) {
	if time.Now().After(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.accessToken, nil
}

// AccessToken returns the session's access token without checking expiry.
func (s *Session) AccessToken() string {
	return s.accessToken
}

// Expired reports whether the session's access token is past its buffered
// expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.expiresAt)
}

// User returns the account this session was issued for. Zero-valued for
// sessions built with NewSessionFromToken.
func (s *Session) User() UserInfo {
	return s.user
}

// Memberships returns the family memberships reported at login or
// confirmation time. The slice is a snapshot, not a live view.
func (s *Session) Memberships() []MembershipInfo {
	return s.memberships
}

// Warning returns the non-fatal warning from confirmation, if any. A typical
// value explains that a staged invitation expired before it could be
// redeemed.
func (s *Session) Warning() string {
	return s.warning
}
