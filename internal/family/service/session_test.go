package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
)

func TestSessionIssue(t *testing.T) {
	ctx := context.Background()
	svcs := newTestServices(t)

	user := seedUser(t, svcs.Store, "bearer@example.com", "Bea", true)

	session, err := svcs.Sessions.Issue(ctx, user)
	require.NoError(t, err)
	require.Equal(t, "Bearer", session.TokenType)
	require.EqualValues(t, 60, session.ExpiresIn)

	// The token must verify against the same key set it was minted with.
	claims, err := svcs.KeyManager.Verifier.Verify(session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, user.Email, claims.Username)
	require.Equal(t, user.Name, claims.PreferredName)
	require.NotEmpty(t, claims.SID)
	require.Contains(t, claims.Scopes, "family:read")
	require.Contains(t, claims.Scopes, "family:write")
	require.Contains(t, claims.AMR, jwtx.AMRPassword)
}

func TestSessionDefaultTTL(t *testing.T) {
	svcs := newTestServices(t)
	svcs.Sessions.AccessTTL = 0

	user := seedUser(t, svcs.Store, "default@example.com", "Deft", true)

	session, err := svcs.Sessions.Issue(context.Background(), user)
	require.NoError(t, err)
	require.EqualValues(t, jwtx.DefaultAccessTokenTTL/time.Second, session.ExpiresIn)
}
