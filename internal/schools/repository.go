package schools

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

// Repository persists schools.
type Repository interface {
	List(ctx context.Context, params shared.PageParams) ([]School, int, error)
	ListForUser(ctx context.Context, userID int64, params shared.PageParams) ([]School, int, error)
	FindByID(ctx context.Context, id int64) (School, error)
	ExistsByTaxID(ctx context.Context, taxID string) (bool, error)
	Create(ctx context.Context, school School) (School, error)
	Update(ctx context.Context, school School) (School, error)
	SoftDelete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const schoolColumns = `id, name, fantasy_name, tax_id, address, city, state, created_at, updated_at`

func scanSchool(row pgx.Row) (School, error) {
	var s School
	err := row.Scan(&s.ID, &s.Name, &s.FantasyName, &s.TaxID, &s.Address, &s.City, &s.State, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return School{}, httpx.ErrNotFound
	}
	return s, err
}

func (r *repository) List(ctx context.Context, params shared.PageParams) ([]School, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM schools WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("schools: count: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+schoolColumns+` FROM schools WHERE deleted_at IS NULL ORDER BY id LIMIT $1 OFFSET $2`,
		params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("schools: list: %w", err)
	}
	defer rows.Close()
	return collect(rows, total)
}

func (r *repository) ListForUser(ctx context.Context, userID int64, params shared.PageParams) ([]School, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM schools s
		 JOIN school_members m ON m.school_id = s.id AND m.deleted_at IS NULL
		 WHERE s.deleted_at IS NULL AND m.user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("schools: count for user: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.fantasy_name, s.tax_id, s.address, s.city, s.state, s.created_at, s.updated_at
		 FROM schools s
		 JOIN school_members m ON m.school_id = s.id AND m.deleted_at IS NULL
		 WHERE s.deleted_at IS NULL AND m.user_id = $1
		 ORDER BY s.id LIMIT $2 OFFSET $3`,
		userID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("schools: list for user: %w", err)
	}
	defer rows.Close()
	return collect(rows, total)
}

func collect(rows pgx.Rows, total int) ([]School, int, error) {
	var out []School
	for rows.Next() {
		s, err := scanSchool(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, id int64) (School, error) {
	return scanSchool(r.pool.QueryRow(ctx,
		`SELECT `+schoolColumns+` FROM schools WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repository) ExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schools WHERE tax_id = $1 AND deleted_at IS NULL)`, taxID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("schools: exists by tax id: %w", err)
	}
	return exists, nil
}

func (r *repository) Create(ctx context.Context, school School) (School, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO schools (name, fantasy_name, tax_id, address, city, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		school.Name, school.FantasyName, school.TaxID, school.Address, school.City, school.State, now).Scan(&school.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return School{}, fmt.Errorf("%w: a school with this tax id already exists", httpx.ErrDuplicate)
		}
		return School{}, fmt.Errorf("schools: create: %w", err)
	}
	school.CreatedAt = now
	school.UpdatedAt = now
	return school, nil
}

func (r *repository) Update(ctx context.Context, school School) (School, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE schools SET name = $1, fantasy_name = $2, address = $3, city = $4, state = $5, updated_at = $6
		 WHERE id = $7 AND deleted_at IS NULL`,
		school.Name, school.FantasyName, school.Address, school.City, school.State, now, school.ID)
	if err != nil {
		return School{}, fmt.Errorf("schools: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return School{}, httpx.ErrNotFound
	}
	school.UpdatedAt = now
	return school, nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE schools SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("schools: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
