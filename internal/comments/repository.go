package comments

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

// Repository persists lecture comments.
type Repository interface {
	List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Comment, int, error)
	FindByID(ctx context.Context, schoolID, lectureID, id int64) (Comment, error)
	Create(ctx context.Context, comment Comment) (Comment, error)
	Update(ctx context.Context, comment Comment) (Comment, error)
	SoftDelete(ctx context.Context, schoolID, lectureID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const commentSelect = `SELECT c.id, c.school_id, c.lecture_id, c.parent_id, c.author_id, u.first_name, u.last_name, c.title, c.post, c.created_at, c.updated_at
	FROM comments c
	JOIN school_members m ON m.id = c.author_id
	JOIN users u ON u.id = m.user_id`

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.SchoolID, &c.LectureID, &c.ParentID, &c.AuthorID, &c.FirstName, &c.LastName, &c.Title, &c.Post, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, httpx.ErrNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Comment, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE school_id = $1 AND lecture_id = $2 AND deleted_at IS NULL`,
		schoolID, lectureID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("comments: count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		commentSelect+` WHERE c.school_id = $1 AND c.lecture_id = $2 AND c.deleted_at IS NULL
		 ORDER BY c.id LIMIT $3 OFFSET $4`,
		schoolID, lectureID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("comments: list: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) FindByID(ctx context.Context, schoolID, lectureID, id int64) (Comment, error) {
	return scanComment(r.pool.QueryRow(ctx,
		commentSelect+` WHERE c.school_id = $1 AND c.lecture_id = $2 AND c.id = $3 AND c.deleted_at IS NULL`,
		schoolID, lectureID, id))
}

func (r *repository) Create(ctx context.Context, comment Comment) (Comment, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO comments (school_id, lecture_id, parent_id, author_id, title, post, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		comment.SchoolID, comment.LectureID, comment.ParentID, comment.AuthorID,
		comment.Title, comment.Post, now).Scan(&comment.ID)
	if err != nil {
		return Comment{}, fmt.Errorf("comments: create: %w", err)
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now
	return comment, nil
}

func (r *repository) Update(ctx context.Context, comment Comment) (Comment, error) {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE comments SET title = $1, post = $2, updated_at = $3
		 WHERE school_id = $4 AND lecture_id = $5 AND id = $6 AND deleted_at IS NULL`,
		comment.Title, comment.Post, now, comment.SchoolID, comment.LectureID, comment.ID)
	if err != nil {
		return Comment{}, fmt.Errorf("comments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Comment{}, httpx.ErrNotFound
	}
	comment.UpdatedAt = now
	return comment, nil
}

func (r *repository) SoftDelete(ctx context.Context, schoolID, lectureID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE comments SET deleted_at = NOW()
		 WHERE school_id = $1 AND lecture_id = $2 AND id = $3 AND deleted_at IS NULL`,
		schoolID, lectureID, id)
	if err != nil {
		return fmt.Errorf("comments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
