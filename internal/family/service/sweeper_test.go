package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

func TestSweep(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	organizer := seedUser(t, svcs.Store, "keeper@example.com", "Keeper", true)
	family := seedFamily(t, svcs.Store, organizer, "Sweepings")

	staleA, _ := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "stale.a@example.com",
		domain.RoleParent, domain.InvitationPending, time.Now().Add(-time.Hour))
	staleB, staleBToken := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "stale.b@example.com",
		domain.RoleAdult, domain.InvitationPending, time.Now().Add(-time.Minute))
	live, _ := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "live@example.com",
		domain.RoleChild, domain.InvitationPending, time.Now().Add(time.Hour))

	// Terminal records keep their status no matter how old they are.
	settled, _ := seedInvitation(t, svcs.Store, family.ID, organizer.ID, "settled@example.com",
		domain.RoleParent, domain.InvitationAccepted, time.Now().Add(-time.Hour))

	count, err := svcs.Sweeper.Sweep(ctx, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	require.Equal(t, domain.InvitationExpired, getInvitation(t, svcs.Store, staleA.ID).Status)
	require.Equal(t, domain.InvitationExpired, getInvitation(t, svcs.Store, staleB.ID).Status)
	require.Equal(t, domain.InvitationPending, getInvitation(t, svcs.Store, live.ID).Status)
	require.Equal(t, domain.InvitationAccepted, getInvitation(t, svcs.Store, settled.ID).Status)

	// Nothing left to sweep on the next pass.
	count, err = svcs.Sweeper.Sweep(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, count)

	// A swept invitation is terminal for every later operation.
	invitee := seedUser(t, svcs.Store, "stale.b@example.com", "Bee", true)
	_, err = svcs.Invitations.Accept(ctx, invitee.ID, staleBToken)
	require.ErrorIs(t, err, ErrInviteNotPending)
}
