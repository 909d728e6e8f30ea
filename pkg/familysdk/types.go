package familysdk

import (
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the standard error body returned by every endpoint.
// This is used internally for parsing HTTP error responses. Client code
// should use the APIError type from errors.go instead.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g., "invalid_request")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Registration Types
// ============================================================================

// RegisterRequest starts a registration. InviteToken is optional; when
// present the registration is bound to that invitation and the invitee
// email must match.
type RegisterRequest struct {
	// Email is the address to register. It is normalized server-side.
	Email string `json:"email"`

	// Name is the display name for the new account
	Name string `json:"name"`

	// Password is the account password
	Password string `json:"password"`

	// InviteToken is an opaque invitation token from an invitation email
	InviteToken string `json:"invite_token,omitempty"`
}

// RegisterResponse acknowledges that a verification code was issued.
type RegisterResponse struct {
	// Email echoes the normalized address the code was sent to
	Email string `json:"email"`

	// DebugCode carries the verification code in test environments only.
	// Production deployments never populate it.
	DebugCode string `json:"debug_code,omitempty"`
}

// ConfirmRequest completes a registration with the emailed 6-digit code.
type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendCodeRequest asks for a fresh verification code.
type ResendCodeRequest struct {
	Email string `json:"email"`
}

// LoginRequest authenticates an existing, verified account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ============================================================================
// Session Types
// ============================================================================

// SessionResponse is returned after a successful confirmation or login.
type SessionResponse struct {
	// AccessToken is the JWT used to authenticate API requests
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// User describes the authenticated account
	User UserInfo `json:"user"`

	// Memberships lists every family the user belongs to
	Memberships []MembershipInfo `json:"memberships"`

	// Warning is set when confirmation succeeded but a staged invitation
	// could not be redeemed (for example it expired while the code was in
	// transit). The account is fully usable regardless.
	Warning string `json:"warning,omitempty"`
}

// UserInfo describes an account.
type UserInfo struct {
	// UserID is the unique identifier for the user
	UserID string `json:"user_id"`

	// Email is the normalized registered address
	Email string `json:"email"`

	// Name is the display name
	Name string `json:"name"`

	// Verified reports whether the email address has been confirmed
	Verified bool `json:"verified"`
}

// MembershipInfo is a family membership joined with its family name.
type MembershipInfo struct {
	// MembershipID is the unique identifier of the membership row
	MembershipID string `json:"membership_id"`

	// FamilyID is the family the membership belongs to
	FamilyID string `json:"family_id"`

	// FamilyName is the family's display name
	FamilyName string `json:"family_name"`

	// Role is the member's role: organizer, parent, adult or child
	Role string `json:"role"`

	// JoinedAt is when the membership was created (RFC3339 format)
	JoinedAt string `json:"joined_at"`
}

// ============================================================================
// Invitation Types
// ============================================================================

// CreateInvitationRequest invites an email address into a family.
type CreateInvitationRequest struct {
	// Email is the invitee address
	Email string `json:"email"`

	// Role is the role the invitee will receive: parent, adult or child.
	// Organizer can never be granted by invitation.
	Role string `json:"role"`
}

// InvitationInfo describes an invitation.
type InvitationInfo struct {
	// ID is the unique identifier of the invitation
	ID string `json:"id"`

	// FamilyID is the family the invitation belongs to
	FamilyID string `json:"family_id"`

	// Email is the normalized invitee address
	Email string `json:"email"`

	// Role is the role the invitation grants
	Role string `json:"role"`

	// Status is one of pending, accepted, declined, expired, cancelled
	Status string `json:"status"`

	// Expired reports whether the deadline has passed, even if the status
	// still reads pending because the sweeper has not visited the row yet
	Expired bool `json:"expired"`

	// ExpiresAt is the acceptance deadline (RFC3339 format)
	ExpiresAt string `json:"expires_at"`

	// CreatedAt is when the invitation was created (RFC3339 format)
	CreatedAt string `json:"created_at"`
}

// CreateInvitationResponse contains the created invitation and its opaque
// token. The token is shown exactly once; only its fingerprint is stored.
type CreateInvitationResponse struct {
	Invitation InvitationInfo `json:"invitation"`

	// InviteToken is the opaque token the invitee redeems
	InviteToken string `json:"invite_token"`
}

// ListInvitationsResponse contains a family's invitations, newest first.
type ListInvitationsResponse struct {
	Invitations []InvitationInfo `json:"invitations"`
}

// InvitationTokenRequest targets an invitation by its opaque token. Tokens
// travel in request bodies, never in URLs, so they stay out of access logs.
type InvitationTokenRequest struct {
	InviteToken string `json:"invite_token"`
}

// AcceptInvitationResponse describes the membership created by acceptance.
type AcceptInvitationResponse struct {
	MembershipID string `json:"membership_id"`
	FamilyID     string `json:"family_id"`
	FamilyName   string `json:"family_name"`
	Role         string `json:"role"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
// Used in the /readyz endpoint to indicate the status of each component.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify JWT signatures.
type JWKSResponse jwtx.JWKS
