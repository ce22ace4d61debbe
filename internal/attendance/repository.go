package attendance

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

// Repository persists attendance records.
type Repository interface {
	List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Attendance, int, error)
	FindByID(ctx context.Context, schoolID, lectureID, id int64) (Attendance, error)
	FindByStudent(ctx context.Context, schoolID, lectureID, studentID int64) (Attendance, error)
	Create(ctx context.Context, record Attendance) (Attendance, error)
	SetCheckout(ctx context.Context, id int64, endAt time.Time) (Attendance, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const attendanceColumns = `id, school_id, lecture_id, student_id, start_at, end_at, created_at, updated_at`

func scanAttendance(row pgx.Row) (Attendance, error) {
	var a Attendance
	err := row.Scan(&a.ID, &a.SchoolID, &a.LectureID, &a.StudentID, &a.StartAt, &a.EndAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attendance{}, httpx.ErrNotFound
	}
	return a, err
}

func (r *repository) List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Attendance, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendances WHERE school_id = $1 AND lecture_id = $2 AND deleted_at IS NULL`,
		schoolID, lectureID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("attendance: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+attendanceColumns+` FROM attendances
		 WHERE school_id = $1 AND lecture_id = $2 AND deleted_at IS NULL
		 ORDER BY id LIMIT $3 OFFSET $4`,
		schoolID, lectureID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("attendance: list: %w", err)
	}
	defer rows.Close()

	var out []Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, schoolID, lectureID, id int64) (Attendance, error) {
	return scanAttendance(r.pool.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendances
		 WHERE school_id = $1 AND lecture_id = $2 AND id = $3 AND deleted_at IS NULL`,
		schoolID, lectureID, id))
}

func (r *repository) FindByStudent(ctx context.Context, schoolID, lectureID, studentID int64) (Attendance, error) {
	return scanAttendance(r.pool.QueryRow(ctx,
		`SELECT `+attendanceColumns+` FROM attendances
		 WHERE school_id = $1 AND lecture_id = $2 AND student_id = $3 AND deleted_at IS NULL`,
		schoolID, lectureID, studentID))
}

func (r *repository) Create(ctx context.Context, record Attendance) (Attendance, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendances (school_id, lecture_id, student_id, start_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		record.SchoolID, record.LectureID, record.StudentID, record.StartAt, now).Scan(&record.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Attendance{}, fmt.Errorf("%w: attendance already recorded for this lecture", httpx.ErrDuplicate)
		}
		return Attendance{}, fmt.Errorf("attendance: create: %w", err)
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	return record, nil
}

func (r *repository) SetCheckout(ctx context.Context, id int64, endAt time.Time) (Attendance, error) {
	record, err := scanAttendance(r.pool.QueryRow(ctx,
		`UPDATE attendances SET end_at = $1, updated_at = $2
		 WHERE id = $3 AND end_at IS NULL AND deleted_at IS NULL
		 RETURNING `+attendanceColumns,
		endAt, time.Now().UTC(), id))
	if err != nil {
		return Attendance{}, fmt.Errorf("attendance: checkout: %w", err)
	}
	return record, nil
}
