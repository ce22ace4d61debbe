package classrooms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Repository persists classrooms.
type Repository interface {
	List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Classroom, int, error)
	FindByID(ctx context.Context, schoolID, id int64) (Classroom, error)
	Create(ctx context.Context, room Classroom) (Classroom, error)
	Update(ctx context.Context, room Classroom) (Classroom, error)
	SoftDelete(ctx context.Context, schoolID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const classroomColumns = `id, school_id, name, latitude, longitude, location_radius, created_at, updated_at`

func scanClassroom(row pgx.Row) (Classroom, error) {
	var c Classroom
	err := row.Scan(&c.ID, &c.SchoolID, &c.Name, &c.Latitude, &c.Longitude, &c.LocationRadius, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Classroom{}, httpx.ErrNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Classroom, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM classrooms WHERE school_id = $1 AND deleted_at IS NULL`, schoolID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("classrooms: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+classroomColumns+` FROM classrooms
		 WHERE school_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT $2 OFFSET $3`,
		schoolID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("classrooms: list: %w", err)
	}
	defer rows.Close()

	var out []Classroom
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, schoolID, id int64) (Classroom, error) {
	return scanClassroom(r.pool.QueryRow(ctx,
		`SELECT `+classroomColumns+` FROM classrooms
		 WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`, schoolID, id))
}

func (r *repository) Create(ctx context.Context, room Classroom) (Classroom, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classrooms (school_id, name, latitude, longitude, location_radius, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
		room.SchoolID, room.Name, room.Latitude, room.Longitude, room.LocationRadius, now).Scan(&room.ID)
	if err != nil {
		return Classroom{}, fmt.Errorf("classrooms: create: %w", err)
	}
	room.CreatedAt = now
	room.UpdatedAt = now
	return room, nil
}

func (r *repository) Update(ctx context.Context, room Classroom) (Classroom, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE classrooms SET name = $1, latitude = $2, longitude = $3, location_radius = $4, updated_at = $5
		 WHERE school_id = $6 AND id = $7 AND deleted_at IS NULL`,
		room.Name, room.Latitude, room.Longitude, room.LocationRadius, now, room.SchoolID, room.ID)
	if err != nil {
		return Classroom{}, fmt.Errorf("classrooms: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Classroom{}, httpx.ErrNotFound
	}
	room.UpdatedAt = now
	return room, nil
}

func (r *repository) SoftDelete(ctx context.Context, schoolID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE classrooms SET deleted_at = NOW() WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id)
	if err != nil {
		return fmt.Errorf("classrooms: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
