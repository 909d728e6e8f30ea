package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
)

func TestCreateInvitation(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")

	t.Run("organizer can invite", func(t *testing.T) {
		inv, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "new.parent@example.com", "parent")
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.Equal(t, domain.InvitationPending, inv.Status)
		require.Equal(t, domain.RoleParent, inv.Role)
		require.Equal(t, "new.parent@example.com", inv.InviteeEmail)
		require.Equal(t, cryptox.FingerprintToken(token), inv.TokenHash)
		require.WithinDuration(t, time.Now().Add(InvitationTTL), inv.ExpiresAt, 5*time.Second)
	})

	t.Run("configured TTL overrides the default", func(t *testing.T) {
		short := &InvitationService{Store: svcs.Store, Notify: svcs.Invitations.Notify, TTL: 48 * time.Hour}

		inv, _, err := short.Create(ctx, organizer.ID, family.ID, "short.window@example.com", "adult")
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(48*time.Hour), inv.ExpiresAt, 5*time.Second)
	})

	t.Run("stores email lowercased", func(t *testing.T) {
		inv, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "Mixed.Case@Example.COM", "adult")
		require.NoError(t, err)
		require.Equal(t, "mixed.case@example.com", inv.InviteeEmail)
	})

	t.Run("organizer role can never be granted", func(t *testing.T) {
		_, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "boss@example.com", "organizer")
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "who@example.com", "superuser")
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		_, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "not-an-email", "parent")
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("unknown family rejected", func(t *testing.T) {
		_, _, err := svcs.Invitations.Create(ctx, organizer.ID, "nope", "a@example.com", "parent")
		require.ErrorIs(t, err, ErrFamilyNotFound)
	})

	t.Run("non-organizer member cannot invite", func(t *testing.T) {
		parent := seedUser(t, svcs.Store, "parent@example.com", "Pat", true)
		seedMembership(t, svcs.Store, parent, family.ID, domain.RoleParent)

		_, _, err := svcs.Invitations.Create(ctx, parent.ID, family.ID, "friend@example.com", "adult")
		require.ErrorIs(t, err, ErrNotFamilyAdmin)
	})

	t.Run("outsider cannot invite", func(t *testing.T) {
		outsider := seedUser(t, svcs.Store, "outsider@example.com", "Out", true)

		_, _, err := svcs.Invitations.Create(ctx, outsider.ID, family.ID, "friend@example.com", "adult")
		require.ErrorIs(t, err, ErrNotFamilyAdmin)
	})

	t.Run("existing member cannot be invited", func(t *testing.T) {
		member := seedUser(t, svcs.Store, "member@example.com", "Mem", true)
		seedMembership(t, svcs.Store, member, family.ID, domain.RoleAdult)

		// Case variations still hit the membership.
		_, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "Member@Example.com", "adult")
		require.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("duplicate pending invitation rejected", func(t *testing.T) {
		_, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "dupe@example.com", "parent")
		require.NoError(t, err)

		_, _, err = svcs.Invitations.Create(ctx, organizer.ID, family.ID, "Dupe@Example.COM", "child")
		require.ErrorIs(t, err, ErrDuplicateInvite)
	})

	t.Run("re-invite allowed once the previous invitation is terminal", func(t *testing.T) {
		_, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "again@example.com", "parent")
		require.NoError(t, err)
		require.NoError(t, svcs.Invitations.Cancel(ctx, organizer.ID, token))

		_, _, err = svcs.Invitations.Create(ctx, organizer.ID, family.ID, "again@example.com", "parent")
		require.NoError(t, err)
	})
}

func TestListInvitations(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")

	_, _, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "one@example.com", "parent")
	require.NoError(t, err)

	cancelled, cancelledToken, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "two@example.com", "adult")
	require.NoError(t, err)
	require.NoError(t, svcs.Invitations.Cancel(ctx, organizer.ID, cancelledToken))

	// Stale but unswept: persisted status still pending, deadline in the past.
	stale, _ := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "three@example.com",
		domain.RoleChild, domain.InvitationPending, time.Now().Add(-time.Hour))

	t.Run("returns all with live expiry annotation", func(t *testing.T) {
		views, err := svcs.Invitations.List(ctx, organizer.ID, family.ID, nil)
		require.NoError(t, err)
		require.Len(t, views, 3)

		byID := map[string]InvitationView{}
		for _, v := range views {
			byID[v.ID] = v
		}
		require.True(t, byID[stale.ID].IsExpired)
		require.Equal(t, domain.InvitationPending, byID[stale.ID].Status)
		require.False(t, byID[cancelled.ID].IsExpired)
	})

	t.Run("filters by status", func(t *testing.T) {
		pending := domain.InvitationPending
		views, err := svcs.Invitations.List(ctx, organizer.ID, family.ID, &pending)
		require.NoError(t, err)
		require.Len(t, views, 2)
		for _, v := range views {
			require.Equal(t, domain.InvitationPending, v.Status)
		}
	})

	t.Run("non-organizer denied", func(t *testing.T) {
		stranger := seedUser(t, svcs.Store, "stranger@example.com", "Sam", true)
		_, err := svcs.Invitations.List(ctx, stranger.ID, family.ID, nil)
		require.ErrorIs(t, err, ErrNotFamilyAdmin)
	})
}

func TestCancelInvitation(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")

	t.Run("organizer cancels a pending invitation", func(t *testing.T) {
		inv, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "cancel.me@example.com", "parent")
		require.NoError(t, err)

		require.NoError(t, svcs.Invitations.Cancel(ctx, organizer.ID, token))
		require.Equal(t, domain.InvitationCancelled, getInvitation(t, svcs.Store, inv.ID).Status)

		// Terminal states stay put.
		require.ErrorIs(t, svcs.Invitations.Cancel(ctx, organizer.ID, token), ErrInviteNotPending)
	})

	t.Run("cancelled invitation cannot be accepted", func(t *testing.T) {
		_, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "late@example.com", "parent")
		require.NoError(t, err)
		require.NoError(t, svcs.Invitations.Cancel(ctx, organizer.ID, token))

		invitee := seedUser(t, svcs.Store, "late@example.com", "Lana", true)
		_, err = svcs.Invitations.Accept(ctx, invitee.ID, token)
		require.ErrorIs(t, err, ErrInviteNotPending)
	})

	t.Run("unknown token", func(t *testing.T) {
		require.ErrorIs(t, svcs.Invitations.Cancel(ctx, organizer.ID, "no-such-token"), ErrInviteNotFound)
	})

	t.Run("non-organizer denied", func(t *testing.T) {
		_, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "deny@example.com", "parent")
		require.NoError(t, err)

		stranger := seedUser(t, svcs.Store, "stranger2@example.com", "Sam", true)
		require.ErrorIs(t, svcs.Invitations.Cancel(ctx, stranger.ID, token), ErrNotFamilyAdmin)
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")

	t.Run("invitee joins with the granted role", func(t *testing.T) {
		inv, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "joiner@example.com", "parent")
		require.NoError(t, err)

		// Stored email is lowercase; the account signed up with mixed case.
		invitee := seedUser(t, svcs.Store, "Joiner@Example.com", "Jo", true)

		res, err := svcs.Invitations.Accept(ctx, invitee.ID, token)
		require.NoError(t, err)
		require.Equal(t, family.ID, res.Family.ID)
		require.Equal(t, domain.RoleParent, res.Membership.Role)
		require.Equal(t, invitee.ID, res.Membership.UserID)

		require.Equal(t, domain.InvitationAccepted, getInvitation(t, svcs.Store, inv.ID).Status)

		m, err := svcs.Store.Memberships().GetMembership(ctx, invitee.ID, family.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleParent, m.Role)

		// Accepting again: the invitation is no longer pending.
		_, err = svcs.Invitations.Accept(ctx, invitee.ID, token)
		require.ErrorIs(t, err, ErrInviteNotPending)
	})

	t.Run("expired invitation unusable even before the sweep", func(t *testing.T) {
		_, token := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "slow@example.com",
			domain.RoleAdult, domain.InvitationPending, time.Now().Add(-time.Minute))
		invitee := seedUser(t, svcs.Store, "slow@example.com", "Slow", true)

		_, err := svcs.Invitations.Accept(ctx, invitee.ID, token)
		require.ErrorIs(t, err, ErrInviteExpired)
	})

	t.Run("email mismatch rejected", func(t *testing.T) {
		_, token := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "intended@example.com",
			domain.RoleAdult, domain.InvitationPending, time.Now().Add(time.Hour))
		other := seedUser(t, svcs.Store, "other@example.com", "Other", true)

		_, err := svcs.Invitations.Accept(ctx, other.ID, token)
		require.ErrorIs(t, err, ErrEmailMismatch)
	})

	t.Run("existing member rejected", func(t *testing.T) {
		member := seedUser(t, svcs.Store, "in.already@example.com", "Ina", true)
		seedMembership(t, svcs.Store, member, family.ID, domain.RoleAdult)
		_, token := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "in.already@example.com",
			domain.RoleParent, domain.InvitationPending, time.Now().Add(time.Hour))

		_, err := svcs.Invitations.Accept(ctx, member.ID, token)
		require.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("unknown token", func(t *testing.T) {
		invitee := seedUser(t, svcs.Store, "nobody@example.com", "No", true)
		_, err := svcs.Invitations.Accept(ctx, invitee.ID, "bogus")
		require.ErrorIs(t, err, ErrInviteNotFound)
	})
}

// Concurrent acceptance of one token must produce exactly one accepted
// invitation and exactly one membership; every other caller loses cleanly.
func TestAcceptExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")
	invitee := seedUser(t, svcs.Store, "racer@example.com", "Ray", true)

	inv, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "racer@example.com", "parent")
	require.NoError(t, err)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svcs.Invitations.Accept(ctx, invitee.ID, token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		// Losers observe the record as claimed, one way or the other.
		if !errors.Is(err, ErrInviteNotPending) && !errors.Is(err, ErrAlreadyMember) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	require.Equal(t, 1, wins)

	require.Equal(t, domain.InvitationAccepted, getInvitation(t, svcs.Store, inv.ID).Status)

	memberships, err := svcs.Store.Memberships().ListMembershipsByUser(ctx, invitee.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
}

func TestDeclineInvitation(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")

	t.Run("invitee declines without gaining membership", func(t *testing.T) {
		inv, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "nope@example.com", "parent")
		require.NoError(t, err)
		invitee := seedUser(t, svcs.Store, "nope@example.com", "Nina", true)

		require.NoError(t, svcs.Invitations.Decline(ctx, invitee.ID, token))
		require.Equal(t, domain.InvitationDeclined, getInvitation(t, svcs.Store, inv.ID).Status)

		_, err = svcs.Store.Memberships().GetMembership(ctx, invitee.ID, family.ID)
		require.Error(t, err)

		require.ErrorIs(t, svcs.Invitations.Decline(ctx, invitee.ID, token), ErrInviteNotPending)
	})

	t.Run("expired invitation cannot be declined", func(t *testing.T) {
		_, token := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "gone@example.com",
			domain.RoleAdult, domain.InvitationPending, time.Now().Add(-time.Minute))
		invitee := seedUser(t, svcs.Store, "gone@example.com", "Gone", true)

		require.ErrorIs(t, svcs.Invitations.Decline(ctx, invitee.ID, token), ErrInviteExpired)
	})

	t.Run("email mismatch rejected", func(t *testing.T) {
		_, token := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "target@example.com",
			domain.RoleAdult, domain.InvitationPending, time.Now().Add(time.Hour))
		other := seedUser(t, svcs.Store, "not.target@example.com", "Not", true)

		require.ErrorIs(t, svcs.Invitations.Decline(ctx, other.ID, token), ErrEmailMismatch)
	})
}

func TestResendInvitation(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "owner@example.com", "Olive", true)
	family := seedFamily(t, svcs.Store, organizer, "The Owners")

	t.Run("rotates the token and extends the deadline", func(t *testing.T) {
		inv, oldToken, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "fresh@example.com", "parent")
		require.NoError(t, err)

		updated, newToken, err := svcs.Invitations.Resend(ctx, organizer.ID, oldToken)
		require.NoError(t, err)
		require.NotEqual(t, oldToken, newToken)
		require.False(t, updated.ExpiresAt.Before(inv.ExpiresAt))

		// The old token no longer resolves; the new one redeems.
		invitee := seedUser(t, svcs.Store, "fresh@example.com", "Fred", true)
		_, err = svcs.Invitations.Accept(ctx, invitee.ID, oldToken)
		require.ErrorIs(t, err, ErrInviteNotFound)

		_, err = svcs.Invitations.Accept(ctx, invitee.ID, newToken)
		require.NoError(t, err)
	})

	t.Run("non-organizer denied", func(t *testing.T) {
		_, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "deny2@example.com", "adult")
		require.NoError(t, err)

		stranger := seedUser(t, svcs.Store, "stranger3@example.com", "Sam", true)
		_, _, err = svcs.Invitations.Resend(ctx, stranger.ID, token)
		require.ErrorIs(t, err, ErrNotFamilyAdmin)
	})

	t.Run("terminal invitation cannot be resent", func(t *testing.T) {
		_, token, err := svcs.Invitations.Create(ctx, organizer.ID, family.ID, "done@example.com", "adult")
		require.NoError(t, err)
		require.NoError(t, svcs.Invitations.Cancel(ctx, organizer.ID, token))

		_, _, err = svcs.Invitations.Resend(ctx, organizer.ID, token)
		require.ErrorIs(t, err, ErrInviteNotPending)
	})

	t.Run("stale invitation cannot be resent", func(t *testing.T) {
		_, token := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "stale@example.com",
			domain.RoleAdult, domain.InvitationPending, time.Now().Add(-time.Minute))

		_, _, err := svcs.Invitations.Resend(ctx, organizer.ID, token)
		require.ErrorIs(t, err, ErrInviteExpired)
	})
}
