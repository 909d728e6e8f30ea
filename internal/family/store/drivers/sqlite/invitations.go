package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, family_id, inviter_id, invitee_email, role, status, token_hash, expires_at, created_at, updated_at`

func scanInvitation(row *sql.Row) (domain.Invitation, error) {
	var (
		inv                             domain.Invitation
		role, status                    string
		expiresAt, createdAt, updatedAt int64
	)
	err := row.Scan(&inv.ID, &inv.FamilyID, &inv.InviterID, &inv.InviteeEmail,
		&role, &status, &inv.TokenHash, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InvitationStatus(status)
	inv.ExpiresAt = decodeTime(expiresAt)
	inv.CreatedAt = decodeTime(createdAt)
	inv.UpdatedAt = decodeTime(updatedAt)
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations
		   (id, family_id, inviter_id, invitee_email, role, status, token_hash, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.FamilyID, inv.InviterID, domain.NormalizeEmail(inv.InviteeEmail),
		string(inv.Role), string(inv.Status), inv.TokenHash,
		encodeTime(inv.ExpiresAt), encodeTime(inv.CreatedAt), encodeTime(inv.UpdatedAt))
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token_hash = ?`, hash)
	return scanInvitation(row)
}

func (r *invitationsRepo) ListInvitationsByFamily(ctx context.Context, familyID string, status *domain.InvitationStatus) ([]domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE family_id = ?`
	args := []any{familyID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		var (
			inv                             domain.Invitation
			role, st                        string
			expiresAt, createdAt, updatedAt int64
		)
		if err := rows.Scan(&inv.ID, &inv.FamilyID, &inv.InviterID, &inv.InviteeEmail,
			&role, &st, &inv.TokenHash, &expiresAt, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		inv.Role = domain.Role(role)
		inv.Status = domain.InvitationStatus(st)
		inv.ExpiresAt = decodeTime(expiresAt)
		inv.CreatedAt = decodeTime(createdAt)
		inv.UpdatedAt = decodeTime(updatedAt)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// TransitionInvitationStatus is the compare-and-set for lifecycle moves. The
// WHERE clause on the current status makes concurrent transitions race for a
// single affected row; losers get ErrNotFound.
func (r *invitationsRepo) TransitionInvitationStatus(ctx context.Context, id string, from, to domain.InvitationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = unixepoch('now')
		 WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *invitationsRepo) RotateInvitationToken(ctx context.Context, id, newHash string, newExpiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET token_hash = ?, expires_at = ?, updated_at = unixepoch('now')
		 WHERE id = ? AND status = ?`,
		newHash, encodeTime(newExpiresAt), id, string(domain.InvitationPending))
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *invitationsRepo) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = unixepoch('now')
		 WHERE status = ? AND expires_at < ?`,
		string(domain.InvitationExpired), string(domain.InvitationPending), encodeTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
