package sqlite

import (
	"context"

	"github.com/kinfolkhq/kinfolk/internal/family/domain"
)

type membershipsRepo struct {
	db dbtx
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, family_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.FamilyID, string(m.Role), encodeTime(m.CreatedAt))
	return mapConstraint(err)
}

func (r *membershipsRepo) GetMembership(ctx context.Context, userID, familyID string) (domain.Membership, error) {
	var (
		m         domain.Membership
		role      string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, family_id, role, created_at
		 FROM memberships WHERE user_id = ? AND family_id = ?`,
		userID, familyID).
		Scan(&m.ID, &m.UserID, &m.FamilyID, &role, &createdAt)
	if err != nil {
		return domain.Membership{}, mapNotFound(err)
	}
	m.Role = domain.Role(role)
	m.CreatedAt = decodeTime(createdAt)
	return m, nil
}

func (r *membershipsRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]domain.MembershipDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.user_id, m.family_id, m.role, m.created_at, f.name
		 FROM memberships m
		 JOIN families f ON f.id = m.family_id
		 WHERE m.user_id = ?
		 ORDER BY m.created_at ASC, m.id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MembershipDetail
	for rows.Next() {
		var (
			d         domain.MembershipDetail
			role      string
			createdAt int64
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.FamilyID, &role, &createdAt, &d.FamilyName); err != nil {
			return nil, err
		}
		d.Role = domain.Role(role)
		d.CreatedAt = decodeTime(createdAt)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *membershipsRepo) HasMembershipByEmail(ctx context.Context, familyID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM memberships m
		   JOIN users u ON u.id = m.user_id
		   WHERE m.family_id = ? AND u.email = ?
		 )`,
		familyID, domain.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
