package sqlite

import (
	"context"
	"database/sql"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
	"github.com/kinfolkhq/kinfolk/internal/family/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, name, password_hash, verified, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                    domain.User
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Verified, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = decodeTime(createdAt)
	u.UpdatedAt = decodeTime(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email))
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, domain.NormalizeEmail(u.Email), u.Name, u.PasswordHash, u.Verified,
		encodeTime(u.CreatedAt), encodeTime(u.UpdatedAt))
	return mapConstraint(err)
}

func (r *usersRepo) UpdateRegistration(ctx context.Context, userID, name, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, password_hash = ?, updated_at = unixepoch('now')
		 WHERE id = ?`,
		name, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) MarkUserVerified(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET verified = 1, updated_at = unixepoch('now') WHERE id = ?`,
		userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row update into store.ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
