package store

import (
	"context"
	"errors"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to make it harder to accidentally nest transactions.
type Store interface {
	Users() Users
	Families() Families
	Memberships() Memberships
	Invitations() Invitations
	Verifications() Verifications
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail returns a user by normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRegistration refreshes name and password hash for a user that
	// re-registers before verifying, and bumps updated_at.
	UpdateRegistration(ctx context.Context, userID, name, passwordHash string) error

	// MarkUserVerified flips verified on and bumps updated_at.
	MarkUserVerified(ctx context.Context, userID string) error
}

type Families interface {
	// CreateFamily inserts a new family (id is ULID).
	CreateFamily(ctx context.Context, f domain.Family) error

	// GetFamilyByID fetches a family by id.
	GetFamilyByID(ctx context.Context, id string) (domain.Family, error)

	// DeleteFamily removes a family. Memberships and invitations cascade
	// per schema.
	DeleteFamily(ctx context.Context, id string) error
}

type Memberships interface {
	// CreateMembership inserts a membership. Returns ErrAlreadyExists if the
	// (user, family) pair is already present.
	CreateMembership(ctx context.Context, m domain.Membership) error

	// GetMembership fetches the membership for a (user, family) pair.
	GetMembership(ctx context.Context, userID, familyID string) (domain.Membership, error)

	// ListMembershipsByUser returns all memberships held by a user joined
	// with their family names, oldest first.
	ListMembershipsByUser(ctx context.Context, userID string) ([]domain.MembershipDetail, error)

	// HasMembershipByEmail reports whether any user with the given normalized
	// email already belongs to the family.
	HasMembershipByEmail(ctx context.Context, familyID, email string) (bool, error)
}

type Invitations interface {
	// CreateInvitation writes a new invitation (token_hash is the SHA-256
	// fingerprint of the opaque token). Returns ErrAlreadyExists when a
	// pending invitation for the same (family, email) pair exists, enforced
	// by a partial unique index.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByID fetches an invitation regardless of status.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// GetInvitationByTokenHash fetches an invitation by token fingerprint
	// regardless of status.
	GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error)

	// ListInvitationsByFamily returns the family's invitations newest first,
	// optionally filtered by status.
	ListInvitationsByFamily(ctx context.Context, familyID string, status *domain.InvitationStatus) ([]domain.Invitation, error)

	// TransitionInvitationStatus conditionally moves an invitation from one
	// status to another and bumps updated_at. Returns ErrNotFound if the
	// invitation is missing or no longer in the from status; the compare-and-
	// set is the arbiter under concurrent transitions.
	TransitionInvitationStatus(ctx context.Context, id string, from, to domain.InvitationStatus) error

	// RotateInvitationToken replaces the token fingerprint and extends the
	// deadline of a still-pending invitation. Returns ErrNotFound if the
	// invitation is missing or not pending.
	RotateInvitationToken(ctx context.Context, id, newHash string, newExpiresAt time.Time) error

	// ExpireInvitations bulk-transitions every pending invitation whose
	// deadline has passed to expired and returns how many rows changed.
	// Safe to run repeatedly; the predicate empties itself.
	ExpireInvitations(ctx context.Context, now time.Time) (int64, error)
}

type Verifications interface {
	// UpsertVerification writes the verification record for an email,
	// replacing any previous one (re-registration and resend reuse the slot).
	UpsertVerification(ctx context.Context, rec domain.VerificationRecord) error

	// GetVerification returns the record for an email only while its window
	// is open; expired or missing records yield ErrNotFound.
	GetVerification(ctx context.Context, email string, now time.Time) (domain.VerificationRecord, error)

	// ConsumeVerification deletes the record for an email. Returns
	// ErrNotFound if nothing was deleted, which makes consumption single-use
	// under concurrent confirmation attempts.
	ConsumeVerification(ctx context.Context, email string) error

	// DeleteExpiredVerifications removes records past their window and
	// returns how many rows were removed.
	DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error)
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// ListActiveSigningKeys returns all non-retired, non-expired signing keys
	// ordered by creation date (newest first).
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns all signing keys (including retired and
	// expired) ordered by creation date (newest first). Used for verification
	// during the grace period.
	ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// DeleteExpiredSigningKeys removes all keys past their expires_at
	// timestamp to keep the table bounded.
	DeleteExpiredSigningKeys(ctx context.Context) error
}
