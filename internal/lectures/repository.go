package lectures

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

// Repository persists lectures.
type Repository interface {
	List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Lecture, int, error)
	ListForTeacher(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Lecture, int, error)
	ListForStudent(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Lecture, int, error)
	FindByID(ctx context.Context, schoolID, id int64) (Lecture, error)
	Create(ctx context.Context, lecture Lecture) (Lecture, error)
	Update(ctx context.Context, lecture Lecture) (Lecture, error)
	SoftDelete(ctx context.Context, schoolID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const lectureColumns = `l.id, l.school_id, l.subject_id, l.class_id, l.classroom_id, l.name, l.start_at, l.end_at, l.created_at, l.updated_at`

func scanLecture(row pgx.Row) (Lecture, error) {
	var l Lecture
	err := row.Scan(&l.ID, &l.SchoolID, &l.SubjectID, &l.ClassID, &l.ClassroomID, &l.Name, &l.StartAt, &l.EndAt, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lecture{}, httpx.ErrNotFound
	}
	return l, err
}

func collectLectures(rows pgx.Rows, total int) ([]Lecture, int, error) {
	var out []Lecture
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *repository) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Lecture, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lectures WHERE school_id = $1 AND deleted_at IS NULL`, schoolID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("lectures: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+lectureColumns+` FROM lectures l
		 WHERE l.school_id = $1 AND l.deleted_at IS NULL ORDER BY l.start_at, l.id LIMIT $2 OFFSET $3`,
		schoolID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("lectures: list: %w", err)
	}
	defer rows.Close()
	return collectLectures(rows, total)
}

func (r *repository) ListForTeacher(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Lecture, int, error) {
	const filter = ` FROM lectures l
		 JOIN subject_teachers st ON st.subject_id = l.subject_id
		 WHERE l.school_id = $1 AND st.school_member_id = $2 AND l.deleted_at IS NULL`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+filter, schoolID, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("lectures: count for teacher: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+lectureColumns+filter+` ORDER BY l.start_at, l.id LIMIT $3 OFFSET $4`,
		schoolID, memberID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("lectures: list for teacher: %w", err)
	}
	defer rows.Close()
	return collectLectures(rows, total)
}

func (r *repository) ListForStudent(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Lecture, int, error) {
	const filter = ` FROM lectures l
		 JOIN class_students cs ON cs.class_id = l.class_id AND cs.deleted_at IS NULL
		 WHERE l.school_id = $1 AND cs.school_member_id = $2 AND l.deleted_at IS NULL`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+filter, schoolID, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("lectures: count for student: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+lectureColumns+filter+` ORDER BY l.start_at, l.id LIMIT $3 OFFSET $4`,
		schoolID, memberID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("lectures: list for student: %w", err)
	}
	defer rows.Close()
	return collectLectures(rows, total)
}

func (r *repository) FindByID(ctx context.Context, schoolID, id int64) (Lecture, error) {
	return scanLecture(r.pool.QueryRow(ctx,
		`SELECT `+lectureColumns+` FROM lectures l
		 WHERE l.school_id = $1 AND l.id = $2 AND l.deleted_at IS NULL`, schoolID, id))
}

func (r *repository) Create(ctx context.Context, lecture Lecture) (Lecture, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lectures (school_id, subject_id, class_id, classroom_id, name, start_at, end_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		lecture.SchoolID, lecture.SubjectID, lecture.ClassID, lecture.ClassroomID,
		lecture.Name, lecture.StartAt, lecture.EndAt, now).Scan(&lecture.ID)
	if err != nil {
		return Lecture{}, fmt.Errorf("lectures: create: %w", err)
	}
	lecture.CreatedAt = now
	lecture.UpdatedAt = now
	return lecture, nil
}

func (r *repository) Update(ctx context.Context, lecture Lecture) (Lecture, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE lectures SET subject_id = $1, class_id = $2, classroom_id = $3, name = $4, start_at = $5, end_at = $6, updated_at = $7
		 WHERE school_id = $8 AND id = $9 AND deleted_at IS NULL`,
		lecture.SubjectID, lecture.ClassID, lecture.ClassroomID, lecture.Name,
		lecture.StartAt, lecture.EndAt, now, lecture.SchoolID, lecture.ID)
	if err != nil {
		return Lecture{}, fmt.Errorf("lectures: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Lecture{}, httpx.ErrNotFound
	}
	lecture.UpdatedAt = now
	return lecture, nil
}

func (r *repository) SoftDelete(ctx context.Context, schoolID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE lectures SET deleted_at = NOW() WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id)
	if err != nil {
		return fmt.Errorf("lectures: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
