package subjects

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

// Repository persists subjects and their teacher assignments.
type Repository interface {
	List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Subject, int, error)
	ListForTeacher(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Subject, int, error)
	FindByID(ctx context.Context, schoolID, id int64) (Subject, error)
	Create(ctx context.Context, subject Subject) (Subject, error)
	Update(ctx context.Context, subject Subject) (Subject, error)
	SoftDelete(ctx context.Context, schoolID, id int64) error

	ListTeachers(ctx context.Context, schoolID, subjectID int64, params shared.PageParams) ([]SubjectTeacher, int, error)
	AssignTeacher(ctx context.Context, schoolID, subjectID, userID int64) (SubjectTeacher, error)
	RemoveTeacher(ctx context.Context, schoolID, subjectID, userID int64) error
	IsTeacher(ctx context.Context, schoolID, subjectID, memberID int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const subjectColumns = `id, school_id, name, COALESCE(description, ''), created_at, updated_at`

func scanSubject(row pgx.Row) (Subject, error) {
	var s Subject
	err := row.Scan(&s.ID, &s.SchoolID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, httpx.ErrNotFound
	}
	return s, err
}

func (r *repository) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Subject, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subjects WHERE school_id = $1 AND deleted_at IS NULL`, schoolID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("subjects: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+subjectColumns+` FROM subjects
		 WHERE school_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT $2 OFFSET $3`,
		schoolID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("subjects: list: %w", err)
	}
	defer rows.Close()
	return collectSubjects(rows, total)
}

func (r *repository) ListForTeacher(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Subject, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subjects s
		 JOIN subject_teachers st ON st.subject_id = s.id
		 WHERE s.school_id = $1 AND st.school_member_id = $2 AND s.deleted_at IS NULL`,
		schoolID, memberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("subjects: count for teacher: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.school_id, s.name, COALESCE(s.description, ''), s.created_at, s.updated_at FROM subjects s
		 JOIN subject_teachers st ON st.subject_id = s.id
		 WHERE s.school_id = $1 AND st.school_member_id = $2 AND s.deleted_at IS NULL
		 ORDER BY s.id LIMIT $3 OFFSET $4`,
		schoolID, memberID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("subjects: list for teacher: %w", err)
	}
	defer rows.Close()
	return collectSubjects(rows, total)
}

func collectSubjects(rows pgx.Rows, total int) ([]Subject, int, error) {
	var out []Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, schoolID, id int64) (Subject, error) {
	return scanSubject(r.pool.QueryRow(ctx,
		`SELECT `+subjectColumns+` FROM subjects
		 WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`, schoolID, id))
}

func (r *repository) Create(ctx context.Context, subject Subject) (Subject, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subjects (school_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $4) RETURNING id`,
		subject.SchoolID, subject.Name, subject.Description, now).Scan(&subject.ID)
	if err != nil {
		return Subject{}, fmt.Errorf("subjects: create: %w", err)
	}
	subject.CreatedAt = now
	subject.UpdatedAt = now
	return subject, nil
}

func (r *repository) Update(ctx context.Context, subject Subject) (Subject, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE subjects SET name = $1, description = NULLIF($2, ''), updated_at = $3
		 WHERE school_id = $4 AND id = $5 AND deleted_at IS NULL`,
		subject.Name, subject.Description, now, subject.SchoolID, subject.ID)
	if err != nil {
		return Subject{}, fmt.Errorf("subjects: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Subject{}, httpx.ErrNotFound
	}
	subject.UpdatedAt = now
	return subject, nil
}

func (r *repository) SoftDelete(ctx context.Context, schoolID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE subjects SET deleted_at = NOW() WHERE school_id = $1 AND id = $2 AND deleted_at IS NULL`,
		schoolID, id)
	if err != nil {
		return fmt.Errorf("subjects: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) ListTeachers(ctx context.Context, schoolID, subjectID int64, params shared.PageParams) ([]SubjectTeacher, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM subject_teachers WHERE school_id = $1 AND subject_id = $2`,
		schoolID, subjectID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("subjects: count teachers: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT st.id, st.school_id, st.subject_id, st.school_member_id, m.user_id, u.first_name, u.last_name, u.email, st.created_at
		 FROM subject_teachers st
		 JOIN school_members m ON m.id = st.school_member_id
		 JOIN users u ON u.id = m.user_id
		 WHERE st.school_id = $1 AND st.subject_id = $2
		 ORDER BY st.id LIMIT $3 OFFSET $4`,
		schoolID, subjectID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("subjects: list teachers: %w", err)
	}
	defer rows.Close()

	var out []SubjectTeacher
	for rows.Next() {
		var t SubjectTeacher
		if err := rows.Scan(&t.ID, &t.SchoolID, &t.SubjectID, &t.MemberID, &t.UserID, &t.FirstName, &t.LastName, &t.Email, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (r *repository) AssignTeacher(ctx context.Context, schoolID, subjectID, userID int64) (SubjectTeacher, error) {
	now := time.Now().UTC()
	var t SubjectTeacher
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subject_teachers (school_id, subject_id, school_member_id, created_at)
		 SELECT $1, $2, m.id, $4 FROM school_members m
		 WHERE m.school_id = $1 AND m.user_id = $3 AND m.deleted_at IS NULL
		 RETURNING id, school_member_id`,
		schoolID, subjectID, userID, now).Scan(&t.ID, &t.MemberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return SubjectTeacher{}, fmt.Errorf("%w: no membership for this user in the school", httpx.ErrNotFound)
	}
	if err != nil {
		if db.IsUniqueViolation(err) {
			return SubjectTeacher{}, fmt.Errorf("%w: member already teaches this subject", httpx.ErrDuplicate)
		}
		return SubjectTeacher{}, fmt.Errorf("subjects: assign teacher: %w", err)
	}
	t.SchoolID = schoolID
	t.SubjectID = subjectID
	t.UserID = userID
	t.CreatedAt = now
	return t, nil
}

func (r *repository) RemoveTeacher(ctx context.Context, schoolID, subjectID, userID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM subject_teachers st USING school_members m
		 WHERE st.school_member_id = m.id AND st.school_id = $1 AND st.subject_id = $2 AND m.user_id = $3`,
		schoolID, subjectID, userID)
	if err != nil {
		return fmt.Errorf("subjects: remove teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) IsTeacher(ctx context.Context, schoolID, subjectID, memberID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM subject_teachers
		 WHERE school_id = $1 AND subject_id = $2 AND school_member_id = $3)`,
		schoolID, subjectID, memberID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("subjects: teacher lookup: %w", err)
	}
	return exists, nil
}
