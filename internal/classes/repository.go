package classes

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

// Repository persists classes and their enrollments.
type Repository interface {
	List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Class, int, error)
	FindByID(ctx context.Context, schoolID, id int64) (Class, error)
	Create(ctx context.Context, class Class) (Class, error)
	Update(ctx context.Context, class Class) (Class, error)
	SoftDelete(ctx context.Context, schoolID, id int64) error

	ListStudents(ctx context.Context, schoolID, classID int64, params shared.PageParams) ([]ClassStudent, int, error)
	Enroll(ctx context.Context, schoolID, classID, userID int64) (ClassStudent, error)
	Unenroll(ctx context.Context, schoolID, classID, userID int64) error
	IsEnrolled(ctx context.Context, classID, memberID int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const classColumns = `id, school_id, name, start_at, end_at, created_at, updated_at`

func scanClass(row pgx.Row) (Class, error) {
	var c Class
	err := row.Scan(&c.ID, &c.SchoolID, &c.Name, &c.StartAt, &c.EndAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Class{}, httpx.ErrNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Class, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM classes WHERE school_id = $1 AND deleted_at IS NULL`, schoolID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("classes: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+classColumns+` FROM classes
		 WHERE school_id = $1 AND deleted_at IS NULL ORDER BY start_at, id LIMIT $2 OFFSET $3`,
		schoolID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("classes: list: %w", err)
	}
	defer rows.Close()

	var out []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, schoolID, id int64) (Class, error) {
	return scanClass(r.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes
		 WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`, schoolID, id))
}

func (r *repository) Create(ctx context.Context, class Class) (Class, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classes (school_id, name, start_at, end_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		class.SchoolID, class.Name, class.StartAt, class.EndAt, now).Scan(&class.ID)
	if err != nil {
		return Class{}, fmt.Errorf("classes: create: %w", err)
	}
	class.CreatedAt = now
	class.UpdatedAt = now
	return class, nil
}

func (r *repository) Update(ctx context.Context, class Class) (Class, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE classes SET name = $1, start_at = $2, end_at = $3, updated_at = $4
		 WHERE school_id = $5 AND id = $6 AND deleted_at IS NULL`,
		class.Name, class.StartAt, class.EndAt, now, class.SchoolID, class.ID)
	if err != nil {
		return Class{}, fmt.Errorf("classes: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Class{}, httpx.ErrNotFound
	}
	class.UpdatedAt = now
	return class, nil
}

func (r *repository) SoftDelete(ctx context.Context, schoolID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE classes SET deleted_at = NOW() WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id)
	if err != nil {
		return fmt.Errorf("classes: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) ListStudents(ctx context.Context, schoolID, classID int64, params shared.PageParams) ([]ClassStudent, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM class_students WHERE school_id = $1 AND class_id = $2 AND deleted_at IS NULL`,
		schoolID, classID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("classes: count students: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT cs.id, cs.school_id, cs.class_id, cs.school_member_id, m.user_id, u.first_name, u.last_name, u.email, cs.created_at
		 FROM class_students cs
		 JOIN school_members m ON m.id = cs.school_member_id
		 JOIN users u ON u.id = m.user_id
		 WHERE cs.school_id = $1 AND cs.class_id = $2 AND cs.deleted_at IS NULL
		 ORDER BY cs.id LIMIT $3 OFFSET $4`,
		schoolID, classID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("classes: list students: %w", err)
	}
	defer rows.Close()

	var out []ClassStudent
	for rows.Next() {
		var cs ClassStudent
		if err := rows.Scan(&cs.ID, &cs.SchoolID, &cs.ClassID, &cs.MemberID, &cs.UserID, &cs.FirstName, &cs.LastName, &cs.Email, &cs.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, cs)
	}
	return out, total, rows.Err()
}

func (r *repository) Enroll(ctx context.Context, schoolID, classID, userID int64) (ClassStudent, error) {
	now := time.Now().UTC()
	var cs ClassStudent
	err := r.pool.QueryRow(ctx,
		`INSERT INTO class_students (school_id, class_id, school_member_id, created_at)
		 SELECT $1, $2, m.id, $4 FROM school_members m
		 WHERE m.school_id = $1 AND m.user_id = $3 AND m.deleted_at IS NULL
		 RETURNING id, school_member_id`,
		schoolID, classID, userID, now).Scan(&cs.ID, &cs.MemberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClassStudent{}, fmt.Errorf("%w: no membership for this user in the school", httpx.ErrNotFound)
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ClassStudent{}, fmt.Errorf("%w: member is already enrolled in this class", httpx.ErrDuplicate)
		}
		return ClassStudent{}, fmt.Errorf("classes: enroll: %w", err)
	}
	cs.SchoolID = schoolID
	cs.ClassID = classID
	cs.UserID = userID
	cs.CreatedAt = now
	return cs, nil
}

func (r *repository) Unenroll(ctx context.Context, schoolID, classID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE class_students cs SET deleted_at = NOW() FROM school_members m
		 WHERE cs.school_member_id = m.id AND cs.school_id = $1 AND cs.class_id = $2
		   AND m.user_id = $3 AND cs.deleted_at IS NULL`,
		schoolID, classID, userID)
	if err != nil {
		return fmt.Errorf("classes: unenroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) IsEnrolled(ctx context.Context, classID, memberID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM class_students
		 WHERE class_id = $1 AND school_member_id = $2 AND deleted_at IS NULL)`,
		classID, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("classes: enrollment lookup: %w", err)
	}
	return exists, nil
}
