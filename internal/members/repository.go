package members

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademos/akademos/internal/platform/db"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Repository persists school memberships.
type Repository interface {
	List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Member, int, error)
	FindByID(ctx context.Context, schoolID, id int64) (Member, error)
	FindByUser(ctx context.Context, schoolID, userID int64) (Member, error)
	Create(ctx context.Context, member Member) (Member, error)
	Delete(ctx context.Context, schoolID, userID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const memberSelect = `SELECT m.id, m.school_id, m.user_id, m.role, u.first_name, u.last_name, u.email, m.created_at, m.updated_at
	FROM school_members m
	JOIN users u ON u.id = m.user_id`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.SchoolID, &m.UserID, &m.Role, &m.FirstName, &m.LastName, &m.Email, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, httpx.ErrNotFound
	}
	return m, err
}

func (r *repository) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Member, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM school_members WHERE school_id = $1 AND deleted_at IS NULL`, schoolID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("members: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		memberSelect+` WHERE m.school_id = $1 AND m.deleted_at IS NULL ORDER BY m.id LIMIT $2 OFFSET $3`,
		schoolID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("members: list: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, schoolID, id int64) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx,
		memberSelect+` WHERE m.school_id = $1 AND m.id = $2 AND m.deleted_at IS NULL`, schoolID, id))
}

func (r *repository) FindByUser(ctx context.Context, schoolID, userID int64) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx,
		memberSelect+` WHERE m.school_id = $1 AND m.user_id = $2 AND m.deleted_at IS NULL`, schoolID, userID))
}

func (r *repository) Create(ctx context.Context, member Member) (Member, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO school_members (school_id, user_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		member.SchoolID, member.UserID, member.Role, now).Scan(&member.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Member{}, fmt.Errorf("%w: user is already a member of this school", httpx.ErrDuplicate)
		}
		return Member{}, fmt.Errorf("members: create: %w", err)
	}
	member.CreatedAt = now
	member.UpdatedAt = now
	return member, nil
}

func (r *repository) Delete(ctx context.Context, schoolID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM school_members WHERE school_id = $1 AND user_id = $2`, schoolID, userID)
	if err != nil {
		return fmt.Errorf("members: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
