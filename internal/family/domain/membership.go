package domain

import "time"

// Membership associates a user with a family under a role. At most one
// membership may exist per (user, family) pair.
type Membership struct {
	ID        string
	UserID    string
	FamilyID  string
	Role      Role
	CreatedAt time.Time
}

// MembershipDetail is a membership joined with its family, as returned to
// callers after acceptance or confirmation.
type MembershipDetail struct {
	Membership
	FamilyName string
}
