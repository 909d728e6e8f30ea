package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

type verificationsRepo struct {
	db dbtx
}

// UpsertVerification replaces any outstanding code for the email. Requesting a
// fresh code invalidates the previous one.
func (r *verificationsRepo) UpsertVerification(ctx context.Context, rec domain.VerificationRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_codes (email, code_hash, invitation_id, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
		   code_hash = excluded.code_hash,
		   invitation_id = excluded.invitation_id,
		   expires_at = excluded.expires_at,
		   created_at = excluded.created_at`,
		domain.NormalizeEmail(rec.Email), rec.CodeHash, mapOptionalString(rec.InvitationID),
		encodeTime(rec.ExpiresAt), encodeTime(rec.CreatedAt))
	return err
}

func (r *verificationsRepo) GetVerification(ctx context.Context, email string, now time.Time) (domain.VerificationRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT email, code_hash, invitation_id, expires_at, created_at
		 FROM verification_codes WHERE email = ? AND expires_at >= ?`,
		domain.NormalizeEmail(email), encodeTime(now))

	var (
		rec                  domain.VerificationRecord
		invitationID         sql.NullString
		expiresAt, createdAt int64
	)
	if err := row.Scan(&rec.Email, &rec.CodeHash, &invitationID, &expiresAt, &createdAt); err != nil {
		return domain.VerificationRecord{}, mapNotFound(err)
	}
	rec.InvitationID = mapNullStringPtr(invitationID)
	rec.ExpiresAt = decodeTime(expiresAt)
	rec.CreatedAt = decodeTime(createdAt)
	return rec, nil
}

// ConsumeVerification deletes the record so a code can never be redeemed
// twice. ErrNotFound means it was already consumed or never existed.
func (r *verificationsRepo) ConsumeVerification(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE email = ?`, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *verificationsRepo) DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < ?`, encodeTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
