package domain

import (
	"fmt"
	"time"
)

// InvitationStatus is the lifecycle state of an invitation. Pending is the
// only non-terminal state; every transition out of it is final.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// ParseInvitationStatus converts a wire/storage string into an
// InvitationStatus, rejecting unknown values.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(s); st {
	case InvitationPending, InvitationAccepted, InvitationDeclined,
		InvitationExpired, InvitationCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown invitation status %q", s)
}

// Terminal reports whether the status permits no further transitions.
func (s InvitationStatus) Terminal() bool {
	switch s {
	case InvitationAccepted, InvitationDeclined, InvitationExpired, InvitationCancelled:
		return true
	}
	return false
}

type Invitation struct {
	ID           string
	FamilyID     string
	InviterID    string
	InviteeEmail string // stored lowercased
	Role         Role
	Status       InvitationStatus
	TokenHash    string // base64url SHA-256 fingerprint, raw token never stored
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the invitation's deadline has passed at the given
// instant. The boundary is exclusive: an invitation is still actionable at
// exactly ExpiresAt.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Actionable reports whether Accept/Decline may still act on the invitation:
// it must be pending and not past its deadline. The check is live and never
// trusts the sweeper to have run.
func (i Invitation) Actionable(now time.Time) bool {
	return i.Status == InvitationPending && !i.Expired(now)
}
