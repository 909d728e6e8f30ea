package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/pkg/idx"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

// SessionService mints short-lived access tokens for verified users. Tokens
// carry the family scopes and are signed by whichever key the manager has
// active, so rotation never invalidates the endpoint.
type SessionService struct {
	KeyManager *jwtx.KeyManager
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
}

// Issue signs an access token for the user.
func (s *SessionService) Issue(ctx context.Context, user domain.User) (domain.Session, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}

	claims := jwtx.NewAccessClaims(
		user.ID,                                 // subject
		idx.New().String(),                      // session ID
		[]string{"family:read", "family:write"}, // scopes
		[]string{jwtx.AMRPassword},              // authentication method
		ttl,                                     // token lifetime
		s.Issuer,                                // issuer
		s.Audience,                              // audience
		user.Email,                              // username
		user.Name,                               // preferred name
		time.Now(),                              // current time
	)

	token, err := s.KeyManager.GetSigner().Sign(claims)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to sign access token", slog.Any("error", err))
		return domain.Session{}, err
	}

	return domain.Session{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	}, nil
}
