package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/internal/family/notify"
	"github.com/kinfolkhq/kinfolk/internal/family/store"
	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/idx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

var (
	ErrInvalidRegistration = errors.New("name and password are required")
	ErrInvalidInviteToken  = errors.New("invitation token is invalid")
	ErrEmailTaken          = errors.New("email is already registered")
	ErrCodeNotFound        = errors.New("verification code not found or expired")
	ErrCodeMismatch        = errors.New("verification code is incorrect")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrNotVerified         = errors.New("email address is not verified")
	ErrAlreadyVerified     = errors.New("email address is already verified")
)

// VerificationTTL is the verification-code window. Codes live on a much
// shorter clock than invitations and the two never share a deadline.
const VerificationTTL = 10 * time.Minute

// OnboardingService walks a new user from registration through email
// verification, and redeems any invitation that was attached along the way.
type OnboardingService struct {
	Store       store.Store
	Invitations *InvitationService
	Sessions    *SessionService
	Notify      *notify.Dispatcher

	// CodeTTL overrides VerificationTTL when positive.
	CodeTTL time.Duration
}

func (s *OnboardingService) codeTTL() time.Duration {
	if s.CodeTTL > 0 {
		return s.CodeTTL
	}
	return VerificationTTL
}

// AuthResult is an authenticated user with a freshly issued session and
// their memberships.
type AuthResult struct {
	User        domain.User
	Session     domain.Session
	Memberships []domain.MembershipDetail
}

// ConfirmResult is the outcome of a successful confirmation. Warning is set
// when an attached invitation could not be redeemed; the account is verified
// and usable regardless.
type ConfirmResult struct {
	AuthResult
	Warning string
}

// BeginRegistration creates (or refreshes) an unverified account and issues a
// verification code. When an invitation token is supplied it is validated up
// front; a bad token rejects the whole registration rather than silently
// degrading to a plain one. The raw code is returned to the caller so test
// environments can surface it; production handlers must not.
func (s *OnboardingService) BeginRegistration(
	ctx context.Context,
	email string,
	name string,
	password string,
	invitationToken string,
) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input shape.
	if !domain.ValidEmail(email) {
		return "", ErrInvalidEmail
	}
	if name == "" || password == "" {
		return "", ErrInvalidRegistration
	}
	normalized := domain.NormalizeEmail(email)

	// 2. Validate the invitation token before creating anything. The token
	// must resolve to a live pending invitation for this exact email.
	var invitationID *string
	if invitationToken != "" {
		inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(invitationToken))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Warn("registration attempted with unknown invitation token")
				return "", ErrInvalidInviteToken
			}
			log.Error("failed to fetch invitation", slog.Any("error", err))
			return "", err
		}
		if inv.Status != domain.InvitationPending {
			return "", ErrInvalidInviteToken
		}
		if inv.Expired(time.Now()) {
			return "", ErrInviteExpired
		}
		if !domain.EmailsMatch(normalized, inv.InviteeEmail) {
			log.Warn("registration attempted with invitation for a different email",
				slog.String("invitation_id", inv.ID),
			)
			return "", ErrEmailMismatch
		}
		invitationID = &inv.ID
	}

	// 3. A verified account on this email blocks registration. An unverified
	// one is refreshed in place so an abandoned signup can be restarted.
	var existing *domain.User
	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	switch {
	case err == nil && user.Verified:
		return "", ErrEmailTaken
	case err == nil:
		existing = &user
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to fetch user", slog.Any("error", err))
		return "", err
	}

	passwordHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return "", err
	}

	code, err := generateVerificationCode()
	if err != nil {
		log.Error("failed to generate verification code", slog.Any("error", err))
		return "", err
	}

	now := time.Now()
	rec := domain.VerificationRecord{
		Email:        normalized,
		CodeHash:     cryptox.FingerprintToken(code),
		InvitationID: invitationID,
		ExpiresAt:    now.Add(s.codeTTL()),
		CreatedAt:    now,
	}

	// 4. Write the account and its verification record together.
	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if existing != nil {
			userID = existing.ID
			if err := tx.Users().UpdateRegistration(ctx, existing.ID, name, passwordHash); err != nil {
				return err
			}
		} else {
			userID = idx.New().String()
			newUser := domain.User{
				ID:           userID,
				Email:        normalized,
				Name:         name,
				PasswordHash: passwordHash,
				Verified:     false,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Users().CreateUser(ctx, newUser); err != nil {
				if errors.Is(err, store.ErrAlreadyExists) {
					return ErrEmailTaken
				}
				return err
			}
		}
		return tx.Verifications().UpsertVerification(ctx, rec)
	})
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			log.Error("failed to stage registration", slog.Any("error", err))
		}
		return "", err
	}

	log.Info("registration started",
		slog.String("user_id", userID),
		slog.Bool("has_invitation", invitationID != nil),
	)

	// 5. Deliver the code out of band.
	s.Notify.VerificationCode(ctx, notify.CodeEvent{
		Email:     normalized,
		Code:      code,
		ExpiresAt: rec.ExpiresAt,
	})

	return code, nil
}

// ConfirmRegistration redeems a verification code: the account becomes
// verified, a default family is provisioned with the user as organizer, and
// any invitation staged at registration is redeemed. Verification is the
// primary outcome; a stale staged invitation degrades to a warning instead of
// failing the confirmation.
func (s *OnboardingService) ConfirmRegistration(ctx context.Context, email, code string) (ConfirmResult, error) {
	log := slogx.FromContext(ctx)
	normalized := domain.NormalizeEmail(email)
	now := time.Now()

	// 1. Look up the record inside its window and match the code.
	rec, err := s.Store.Verifications().GetVerification(ctx, normalized, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ConfirmResult{}, ErrCodeNotFound
		}
		log.Error("failed to fetch verification record", slog.Any("error", err))
		return ConfirmResult{}, err
	}
	if rec.CodeHash != cryptox.FingerprintToken(code) {
		log.Warn("verification attempted with wrong code")
		return ConfirmResult{}, ErrCodeMismatch
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ConfirmResult{}, ErrCodeNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return ConfirmResult{}, err
	}

	// 2. Consume the record and mark the user verified atomically. The delete
	// is the single-use arbiter: a concurrent confirmation that already
	// consumed it leaves zero rows and loses here.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Verifications().ConsumeVerification(ctx, normalized); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeNotFound
			}
			return err
		}
		return tx.Users().MarkUserVerified(ctx, user.ID)
	})
	if err != nil {
		if !errors.Is(err, ErrCodeNotFound) {
			log.Error("failed to finalize verification", slog.Any("error", err))
		}
		return ConfirmResult{}, err
	}
	user.Verified = true

	log.Info("email verified", slog.String("user_id", user.ID))

	// 3. Every verified user gets a family of their own to organize.
	if err := s.provisionDefaultFamily(ctx, user); err != nil {
		log.Error("failed to provision default family",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return ConfirmResult{}, err
	}

	// 4. Redeem the staged invitation, if any. Failure here is reported, not
	// fatal: the account is already verified and must stay usable.
	warning := ""
	if rec.InvitationID != nil {
		if _, err := s.Invitations.AcceptByID(ctx, user.ID, *rec.InvitationID); err != nil {
			warning = fmt.Sprintf("invitation could not be redeemed: %v", err)
			log.Warn("staged invitation could not be redeemed",
				slog.String("user_id", user.ID),
				slog.String("invitation_id", *rec.InvitationID),
				slog.Any("error", err),
			)
		}
	}

	// 5. Issue the session and report every membership the user now holds.
	session, err := s.Sessions.Issue(ctx, user)
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return ConfirmResult{}, err
	}

	memberships, err := s.Store.Memberships().ListMembershipsByUser(ctx, user.ID)
	if err != nil {
		log.Error("failed to list memberships", slog.Any("error", err))
		return ConfirmResult{}, err
	}

	return ConfirmResult{
		AuthResult: AuthResult{
			User:        user,
			Session:     session,
			Memberships: memberships,
		},
		Warning: warning,
	}, nil
}

// ResendCode issues a fresh verification code for an unverified account,
// invalidating the previous one. The staged invitation, if any, carries over.
func (s *OnboardingService) ResendCode(ctx context.Context, email string) (string, error) {
	log := slogx.FromContext(ctx)
	normalized := domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrUserNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return "", err
	}
	if user.Verified {
		return "", ErrAlreadyVerified
	}

	// Preserve the staged invitation across reissues.
	var invitationID *string
	if rec, err := s.Store.Verifications().GetVerification(ctx, normalized, time.Now()); err == nil {
		invitationID = rec.InvitationID
	}

	code, err := generateVerificationCode()
	if err != nil {
		log.Error("failed to generate verification code", slog.Any("error", err))
		return "", err
	}

	now := time.Now()
	rec := domain.VerificationRecord{
		Email:        normalized,
		CodeHash:     cryptox.FingerprintToken(code),
		InvitationID: invitationID,
		ExpiresAt:    now.Add(s.codeTTL()),
		CreatedAt:    now,
	}
	if err := s.Store.Verifications().UpsertVerification(ctx, rec); err != nil {
		log.Error("failed to store verification record", slog.Any("error", err))
		return "", err
	}

	log.Info("verification code reissued", slog.String("user_id", user.ID))

	s.Notify.VerificationCode(ctx, notify.CodeEvent{
		Email:     normalized,
		Code:      code,
		ExpiresAt: rec.ExpiresAt,
	})

	return code, nil
}

// Login authenticates a verified user and issues a session. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *OnboardingService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	log := slogx.FromContext(ctx)
	normalized := domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return AuthResult{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("login attempted with wrong password", slog.String("user_id", user.ID))
		return AuthResult{}, ErrInvalidCredentials
	}

	if !user.Verified {
		return AuthResult{}, ErrNotVerified
	}

	session, err := s.Sessions.Issue(ctx, user)
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return AuthResult{}, err
	}

	memberships, err := s.Store.Memberships().ListMembershipsByUser(ctx, user.ID)
	if err != nil {
		log.Error("failed to list memberships", slog.Any("error", err))
		return AuthResult{}, err
	}

	log.Info("user logged in", slog.String("user_id", user.ID))

	return AuthResult{User: user, Session: session, Memberships: memberships}, nil
}

// provisionDefaultFamily creates the user's own family with them as
// organizer. Skips quietly when one already exists from a previous partial
// confirmation.
func (s *OnboardingService) provisionDefaultFamily(ctx context.Context, user domain.User) error {
	existing, err := s.Store.Memberships().ListMembershipsByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, m := range existing {
		if m.Role == domain.RoleOrganizer {
			return nil
		}
	}

	now := time.Now()
	family := domain.Family{
		ID:        idx.New().String(),
		Name:      fmt.Sprintf("%s's Family", user.Name),
		CreatedBy: user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	membership := domain.Membership{
		ID:        idx.New().String(),
		UserID:    user.ID,
		FamilyID:  family.ID,
		Role:      domain.RoleOrganizer,
		CreatedAt: now,
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Families().CreateFamily(ctx, family); err != nil {
			return err
		}
		return tx.Memberships().CreateMembership(ctx, membership)
	})
}

// generateVerificationCode returns a random 6-digit code (100000-999999).
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
