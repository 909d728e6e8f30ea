package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/internal/family/notify"
	"github.com/kinfolkhq/kinfolk/internal/family/store"
	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/idx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

var (
	ErrInvalidRole      = errors.New("role cannot be granted by invitation")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrNotFamilyAdmin   = errors.New("caller is not an organizer of the family")
	ErrFamilyNotFound   = errors.New("family not found")
	ErrInviteNotFound   = errors.New("invitation not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateInvite  = errors.New("a pending invitation already exists for this email")
	ErrAlreadyMember    = errors.New("already a member of this family")
	ErrInviteNotPending = errors.New("invitation is no longer pending")
	ErrInviteExpired    = errors.New("invitation has expired")
	ErrEmailMismatch    = errors.New("invitation was issued for a different email")
)

// InvitationTTL is how long an invitation stays redeemable after creation.
// It is deliberately independent of the verification-code window.
const InvitationTTL = 7 * 24 * time.Hour

type InvitationService struct {
	Store  store.Store
	Notify *notify.Dispatcher

	// TTL overrides InvitationTTL when positive.
	TTL time.Duration
}

func (s *InvitationService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return InvitationTTL
}

// InvitationView is an invitation annotated with its live expiry state. The
// flag is derived from the clock on every read so listings are accurate even
// before the sweeper has visited the record.
type InvitationView struct {
	domain.Invitation
	IsExpired bool
}

// AcceptResult is what a successful acceptance produced.
type AcceptResult struct {
	Membership domain.Membership
	Family     domain.Family
}

// Create mints a new pending invitation for an outside email address.
// Only a family organizer may invite, and the granted role can never be
// organizer no matter what the caller supplies.
func (s *InvitationService) Create(
	ctx context.Context,
	actorID string,
	familyID string,
	inviteeEmail string,
	role string,
) (domain.Invitation, string, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate the granted role against the closed set of invitable roles.
	parsedRole, err := domain.ParseRole(role)
	if err != nil || !parsedRole.Invitable() {
		log.Warn("attempted to create invitation with non-invitable role",
			slog.String("family_id", familyID),
			slog.String("role", role),
		)
		return domain.Invitation{}, "", ErrInvalidRole
	}

	// 2. Validate the email shape before touching storage.
	if !domain.ValidEmail(inviteeEmail) {
		log.Warn("attempted to create invitation with malformed email",
			slog.String("family_id", familyID),
		)
		return domain.Invitation{}, "", ErrInvalidEmail
	}
	email := domain.NormalizeEmail(inviteeEmail)

	// 3. The family must exist.
	family, err := s.Store.Families().GetFamilyByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, "", ErrFamilyNotFound
		}
		log.Error("failed to fetch family", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}

	// 4. The actor must hold the organizer role in that family.
	if err := s.requireOrganizer(ctx, actorID, familyID); err != nil {
		return domain.Invitation{}, "", err
	}

	// 5. Refuse to invite someone who already belongs to the family.
	alreadyMember, err := s.Store.Memberships().HasMembershipByEmail(ctx, familyID, email)
	if err != nil {
		log.Error("failed to check existing membership", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}
	if alreadyMember {
		log.Warn("attempted to invite an existing member",
			slog.String("family_id", familyID),
		)
		return domain.Invitation{}, "", ErrAlreadyMember
	}

	// 6. Generate the opaque token; only its fingerprint is persisted.
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}

	now := time.Now()
	inv := domain.Invitation{
		ID:           idx.New().String(),
		FamilyID:     familyID,
		InviterID:    actorID,
		InviteeEmail: email,
		Role:         parsedRole,
		Status:       domain.InvitationPending,
		TokenHash:    cryptox.FingerprintToken(token),
		ExpiresAt:    now.Add(s.ttl()),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 7. Persist. The partial unique index on (family, email, pending) is the
	// arbiter for duplicate pending invitations under concurrent creates.
	if err := s.Store.Invitations().CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("attempted to create duplicate pending invitation",
				slog.String("family_id", familyID),
			)
			return domain.Invitation{}, "", ErrDuplicateInvite
		}
		log.Error("failed to create invitation",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invitation{}, "", err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("family_id", familyID),
		slog.String("role", string(parsedRole)),
		slog.Time("expires_at", inv.ExpiresAt),
	)

	// 8. Hand the notification off; delivery never blocks or fails creation.
	s.notifyInvitation(ctx, inv, family, actorID, token)

	return inv, token, nil
}

// List returns the family's invitations annotated with live expiry, newest
// first, optionally filtered by status. Organizer only.
func (s *InvitationService) List(
	ctx context.Context,
	actorID string,
	familyID string,
	status *domain.InvitationStatus,
) ([]InvitationView, error) {
	if err := s.requireOrganizer(ctx, actorID, familyID); err != nil {
		return nil, err
	}

	invs, err := s.Store.Invitations().ListInvitationsByFamily(ctx, familyID, status)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list invitations", slog.Any("error", err))
		return nil, err
	}

	now := time.Now()
	views := make([]InvitationView, len(invs))
	for i, inv := range invs {
		views[i] = InvitationView{Invitation: inv, IsExpired: inv.Expired(now)}
	}
	return views, nil
}

// Cancel withdraws a pending invitation. The record stays queryable in the
// cancelled state; any outstanding token for it becomes useless.
func (s *InvitationService) Cancel(ctx context.Context, actorID, token string) error {
	log := slogx.FromContext(ctx)

	// 1. Resolve the token.
	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return err
	}

	// 2. Only an organizer of the invitation's family may cancel it.
	if err := s.requireOrganizer(ctx, actorID, inv.FamilyID); err != nil {
		return err
	}

	// 3. Only pending invitations can be cancelled.
	if inv.Status != domain.InvitationPending {
		return ErrInviteNotPending
	}

	// 4. Conditional transition; a concurrent accept/decline/sweep that got
	// there first surfaces as not-pending.
	err = s.Store.Invitations().TransitionInvitationStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationCancelled)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotPending
		}
		log.Error("failed to cancel invitation",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invitation cancelled",
		slog.String("invitation_id", inv.ID),
		slog.String("family_id", inv.FamilyID),
	)
	return nil
}

// Accept redeems an invitation for the authenticated caller: it records the
// membership and marks the invitation accepted as one atomic unit. Under
// concurrent acceptance exactly one caller wins; the rest see not-pending.
func (s *InvitationService) Accept(ctx context.Context, actorID, token string) (AcceptResult, error) {
	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AcceptResult{}, ErrInviteNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch invitation", slog.Any("error", err))
		return AcceptResult{}, err
	}
	return s.accept(ctx, actorID, inv)
}

// AcceptByID is the internal redemption path used when the raw token is no
// longer available, such as redeeming an invitation staged during
// registration. It applies exactly the same guards as Accept.
func (s *InvitationService) AcceptByID(ctx context.Context, actorID, invitationID string) (AcceptResult, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AcceptResult{}, ErrInviteNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch invitation", slog.Any("error", err))
		return AcceptResult{}, err
	}
	return s.accept(ctx, actorID, inv)
}

func (s *InvitationService) accept(ctx context.Context, actorID string, inv domain.Invitation) (AcceptResult, error) {
	log := slogx.FromContext(ctx)

	// 1. Guard the lifecycle. The expiry check runs against the live clock so
	// a stale invitation is unusable even before the sweeper has flipped it.
	if inv.Status != domain.InvitationPending {
		return AcceptResult{}, ErrInviteNotPending
	}
	if inv.Expired(time.Now()) {
		return AcceptResult{}, ErrInviteExpired
	}

	// 2. The caller's email must match the invitee, case-insensitively.
	actor, err := s.Store.Users().GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AcceptResult{}, ErrUserNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return AcceptResult{}, err
	}
	if !domain.EmailsMatch(actor.Email, inv.InviteeEmail) {
		log.Warn("invitation acceptance attempted by mismatched email",
			slog.String("invitation_id", inv.ID),
			slog.String("user_id", actorID),
		)
		return AcceptResult{}, ErrEmailMismatch
	}

	// 3. Refuse duplicate membership before attempting the transition.
	_, err = s.Store.Memberships().GetMembership(ctx, actorID, inv.FamilyID)
	if err == nil {
		return AcceptResult{}, ErrAlreadyMember
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check membership", slog.Any("error", err))
		return AcceptResult{}, err
	}

	family, err := s.Store.Families().GetFamilyByID(ctx, inv.FamilyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AcceptResult{}, ErrFamilyNotFound
		}
		log.Error("failed to fetch family", slog.Any("error", err))
		return AcceptResult{}, err
	}

	// 4. Claim the invitation and record the membership atomically. The
	// conditional update on status is the tie-break: a concurrent accepter,
	// cancel, or sweep that commits first leaves zero rows for us.
	membership := domain.Membership{
		ID:        idx.New().String(),
		UserID:    actorID,
		FamilyID:  inv.FamilyID,
		Role:      inv.Role,
		CreatedAt: time.Now(),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Invitations().TransitionInvitationStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationAccepted)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotPending
			}
			return err
		}

		if err := tx.Memberships().CreateMembership(ctx, membership); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyMember
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInviteNotPending) && !errors.Is(err, ErrAlreadyMember) {
			log.Error("failed to accept invitation",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", err),
			)
		}
		return AcceptResult{}, err
	}

	log.Info("invitation accepted",
		slog.String("invitation_id", inv.ID),
		slog.String("family_id", inv.FamilyID),
		slog.String("user_id", actorID),
		slog.String("role", string(inv.Role)),
	)

	return AcceptResult{Membership: membership, Family: family}, nil
}

// Decline marks an invitation declined. Same guards as Accept minus the
// membership conflict; no membership is created.
func (s *InvitationService) Decline(ctx context.Context, actorID, token string) error {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return err
	}

	if inv.Status != domain.InvitationPending {
		return ErrInviteNotPending
	}
	if inv.Expired(time.Now()) {
		return ErrInviteExpired
	}

	actor, err := s.Store.Users().GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return err
	}
	if !domain.EmailsMatch(actor.Email, inv.InviteeEmail) {
		return ErrEmailMismatch
	}

	err = s.Store.Invitations().TransitionInvitationStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationDeclined)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInviteNotPending
		}
		log.Error("failed to decline invitation",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invitation declined",
		slog.String("invitation_id", inv.ID),
		slog.String("family_id", inv.FamilyID),
	)
	return nil
}

// Resend rotates the token of a still-live pending invitation, restarts its
// expiry window, and redelivers the notification. Stored fingerprints cannot
// be reversed into tokens, so resending always mints a fresh one; the old
// token stops working immediately.
func (s *InvitationService) Resend(ctx context.Context, actorID, token string) (domain.Invitation, string, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, "", ErrInviteNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}

	if err := s.requireOrganizer(ctx, actorID, inv.FamilyID); err != nil {
		return domain.Invitation{}, "", err
	}

	if inv.Status != domain.InvitationPending {
		return domain.Invitation{}, "", ErrInviteNotPending
	}
	if inv.Expired(time.Now()) {
		return domain.Invitation{}, "", ErrInviteExpired
	}

	family, err := s.Store.Families().GetFamilyByID(ctx, inv.FamilyID)
	if err != nil {
		log.Error("failed to fetch family", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}

	newToken, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return domain.Invitation{}, "", err
	}

	newExpiry := time.Now().Add(s.ttl())
	err = s.Store.Invitations().RotateInvitationToken(ctx, inv.ID, cryptox.FingerprintToken(newToken), newExpiry)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, "", ErrInviteNotPending
		}
		log.Error("failed to rotate invitation token",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invitation{}, "", err
	}

	inv.TokenHash = cryptox.FingerprintToken(newToken)
	inv.ExpiresAt = newExpiry

	log.Info("invitation resent",
		slog.String("invitation_id", inv.ID),
		slog.String("family_id", inv.FamilyID),
		slog.Time("expires_at", newExpiry),
	)

	s.notifyInvitation(ctx, inv, family, inv.InviterID, newToken)

	return inv, newToken, nil
}

// requireOrganizer checks the actor holds the organizer role in the family.
func (s *InvitationService) requireOrganizer(ctx context.Context, actorID, familyID string) error {
	m, err := s.Store.Memberships().GetMembership(ctx, actorID, familyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFamilyAdmin
		}
		slogx.FromContext(ctx).Error("failed to fetch membership", slog.Any("error", err))
		return err
	}
	if m.Role != domain.RoleOrganizer {
		return ErrNotFamilyAdmin
	}
	return nil
}

func (s *InvitationService) notifyInvitation(ctx context.Context, inv domain.Invitation, family domain.Family, inviterID, token string) {
	inviterName := ""
	if inviter, err := s.Store.Users().GetUserByID(ctx, inviterID); err == nil {
		inviterName = inviter.Name
	}

	s.Notify.InvitationCreated(ctx, notify.InvitationEvent{
		InvitationID: inv.ID,
		FamilyID:     inv.FamilyID,
		FamilyName:   family.Name,
		InviterName:  inviterName,
		InviteeEmail: inv.InviteeEmail,
		Role:         string(inv.Role),
		Token:        token,
		ExpiresAt:    inv.ExpiresAt,
	})
}
