package domain

import "fmt"

// Role is a member's standing within a family. The set is closed: roles are
// not user-defined rows, they are part of the contract.
type Role string

const (
	// RoleOrganizer is the top administrative role. It is granted by
	// default-family provisioning and can never be granted by invitation.
	RoleOrganizer Role = "organizer"

	RoleParent Role = "parent"
	RoleAdult  Role = "adult"
	RoleChild  Role = "child"
)

// ParseRole converts a wire/storage string into a Role, rejecting unknown
// values.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOrganizer, RoleParent, RoleAdult, RoleChild:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Invitable reports whether the role may be granted through an invitation.
// The organizer role is excluded unconditionally, regardless of who asks.
func (r Role) Invitable() bool {
	return r.Valid() && r != RoleOrganizer
}

// InvitableRoles returns the roles an invitation may carry.
func InvitableRoles() []Role {
	return []Role{RoleParent, RoleAdult, RoleChild}
}
