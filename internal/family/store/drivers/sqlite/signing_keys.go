package sqlite

import (
	"context"
	"database/sql"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

type signingKeysRepo struct {
	db dbtx
}

const signingKeyColumns = `id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at`

func (r *signingKeysRepo) CreateSigningKey(ctx context.Context, key domain.SigningKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO signing_keys (id, kid, algorithm, private_key_encrypted, created_at, retired_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.ID, key.Kid, key.Algorithm, key.PrivateKeyEncrypted,
		encodeTime(key.CreatedAt), encodeTimePtr(key.RetiredAt), encodeTime(key.ExpiresAt))
	return mapConstraint(err)
}

func (r *signingKeysRepo) ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+signingKeyColumns+` FROM signing_keys
		 WHERE retired_at IS NULL AND expires_at > unixepoch('now')
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSigningKeys(rows)
}

func (r *signingKeysRepo) ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+signingKeyColumns+` FROM signing_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSigningKeys(rows)
}

func (r *signingKeysRepo) DeleteExpiredSigningKeys(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM signing_keys WHERE expires_at <= unixepoch('now')`)
	return err
}

func scanSigningKeys(rows *sql.Rows) ([]domain.SigningKey, error) {
	var keys []domain.SigningKey
	for rows.Next() {
		var (
			key                  domain.SigningKey
			createdAt, expiresAt int64
			retiredAt            sql.NullInt64
		)
		if err := rows.Scan(&key.ID, &key.Kid, &key.Algorithm, &key.PrivateKeyEncrypted,
			&createdAt, &retiredAt, &expiresAt); err != nil {
			return nil, err
		}
		key.CreatedAt = decodeTime(createdAt)
		key.RetiredAt = decodeTimePtr(retiredAt)
		key.ExpiresAt = decodeTime(expiresAt)
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
