package domain

import "time"

// VerificationRecord pairs a registration verification code with an email
// and, optionally, the invitation that was validated when registration
// began. Records are single-use and live for minutes, not days; their clock
// is independent of the invitation expiry clock.
type VerificationRecord struct {
	Email        string // primary key, lowercased
	CodeHash     string // base64url SHA-256 fingerprint of the 6-digit code
	InvitationID *string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// Expired reports whether the record's window has closed at the given
// instant.
func (r VerificationRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
