package postgres

import (
	"context"
	"database/sql"

	"flockmanager/internal/domain"
)

type memberRepository struct {
	DB *sql.DB
}

func NewMemberRepository(db *sql.DB) domain.MemberRepository {
	return &memberRepository{DB: db}
}

const memberSelect = `
	SELECT m.id, m.name, COALESCE(m.uo_id, ''), m.email,
	       COALESCE(r.name, ''), COALESCE(w.name, '')
	FROM members m
	LEFT JOIN roles r ON r.id = m.role_id
	LEFT JOIN workplaces w ON w.id = m.workplace_id
`

func scanMember(row interface{ Scan(...any) error }) (*domain.Member, error) {
	m := &domain.Member{}
	if err := row.Scan(&m.ID, &m.Name, &m.UOID, &m.Email, &m.RoleName, &m.WorkplaceName); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *memberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	m, err := scanMember(r.DB.QueryRowContext(ctx, memberSelect+` WHERE m.id = $1`, id))
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

// GetByEmail matches case-insensitively; emails are stored as entered.
func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	m, err := scanMember(r.DB.QueryRowContext(ctx, memberSelect+` WHERE LOWER(m.email) = LOWER($1)`, email))
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *memberRepository) ListByNormalizedName(ctx context.Context, name string, limit int) ([]*domain.Member, error) {
	query := memberSelect + `
		WHERE LOWER(REGEXP_REPLACE(BTRIM(m.name), '\s+', ' ', 'g')) = LOWER($1)
		ORDER BY m.id
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, name, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
