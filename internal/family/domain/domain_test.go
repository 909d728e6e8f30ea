package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"organizer", "parent", "adult", "child"} {
		role, err := ParseRole(s)
		require.NoError(t, err)
		require.Equal(t, Role(s), role)
	}

	for _, s := range []string{"", "admin", "Parent", "ORGANIZER"} {
		_, err := ParseRole(s)
		require.Error(t, err, "role %q", s)
	}
}

func TestRoleInvitable(t *testing.T) {
	t.Parallel()

	require.False(t, RoleOrganizer.Invitable())
	require.False(t, Role("admin").Invitable())

	for _, role := range InvitableRoles() {
		require.True(t, role.Invitable(), "role %q", role)
		require.NotEqual(t, RoleOrganizer, role)
	}
}

func TestParseInvitationStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"pending", "accepted", "declined", "expired", "cancelled"} {
		status, err := ParseInvitationStatus(s)
		require.NoError(t, err)
		require.Equal(t, InvitationStatus(s), status)
	}

	_, err := ParseInvitationStatus("revoked")
	require.Error(t, err)
}

func TestInvitationStatusTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, InvitationPending.Terminal())
	for _, s := range []InvitationStatus{InvitationAccepted, InvitationDeclined, InvitationExpired, InvitationCancelled} {
		require.True(t, s.Terminal(), "status %q", s)
	}
}

func TestInvitationExpiredBoundary(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := Invitation{Status: InvitationPending, ExpiresAt: deadline}

	// Actionable right up to the deadline, inclusive.
	require.False(t, inv.Expired(deadline.Add(-time.Second)))
	require.False(t, inv.Expired(deadline))
	require.True(t, inv.Expired(deadline.Add(time.Nanosecond)))

	require.True(t, inv.Actionable(deadline))
	require.False(t, inv.Actionable(deadline.Add(time.Second)))

	inv.Status = InvitationCancelled
	require.False(t, inv.Actionable(deadline.Add(-time.Hour)))
}

func TestVerificationRecordExpired(t *testing.T) {
	t.Parallel()

	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := VerificationRecord{ExpiresAt: deadline}

	require.False(t, rec.Expired(deadline))
	require.True(t, rec.Expired(deadline.Add(time.Millisecond)))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
	require.True(t, EmailsMatch("Alice@Example.com", "alice@EXAMPLE.com"))
	require.False(t, EmailsMatch("alice@example.com", "bob@example.com"))
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	require.True(t, ValidEmail("alice@example.com"))
	require.True(t, ValidEmail("a.b+tag@sub.example.org"))

	require.False(t, ValidEmail(""))
	require.False(t, ValidEmail("not-an-email"))
	require.False(t, ValidEmail("Alice <alice@example.com>"))
	require.False(t, ValidEmail("alice@example.com, bob@example.com"))
}
