package sqlite

import (
	"context"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

type familiesRepo struct {
	db dbtx
}

func (r *familiesRepo) CreateFamily(ctx context.Context, f domain.Family) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO families (id, name, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.CreatedBy, encodeTime(f.CreatedAt), encodeTime(f.UpdatedAt))
	return mapConstraint(err)
}

func (r *familiesRepo) GetFamilyByID(ctx context.Context, id string) (domain.Family, error) {
	var (
		f                    domain.Family
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at, updated_at FROM families WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return domain.Family{}, mapNotFound(err)
	}
	f.CreatedAt = decodeTime(createdAt)
	f.UpdatedAt = decodeTime(updatedAt)
	return f, nil
}

func (r *familiesRepo) DeleteFamily(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
