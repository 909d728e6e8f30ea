package domain

import (
	"net/mail"
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // stored lowercased
	Name         string
	PasswordHash string // argon2 encoded
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email address. All email comparison
// in the system happens on normalized values.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether the address parses as a bare RFC 5322 address
// (no display name, no angle brackets).
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// EmailsMatch compares two addresses case-insensitively.
func EmailsMatch(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
