package comments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/lectures"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

type lectureRepo struct {
	lecture lectures.Lecture
}

func (r *lectureRepo) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]lectures.Lecture, int, error) {
	return nil, 0, nil
}

func (r *lectureRepo) ListForTeacher(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]lectures.Lecture, int, error) {
	return nil, 0, nil
}

func (r *lectureRepo) ListForStudent(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]lectures.Lecture, int, error) {
	return nil, 0, nil
}

func (r *lectureRepo) FindByID(ctx context.Context, schoolID, id int64) (lectures.Lecture, error) {
	if r.lecture.ID != id || r.lecture.SchoolID != schoolID {
		return lectures.Lecture{}, httpx.ErrNotFound
	}
	return r.lecture, nil
}

func (r *lectureRepo) Create(ctx context.Context, lecture lectures.Lecture) (lectures.Lecture, error) {
	return lecture, nil
}

func (r *lectureRepo) Update(ctx context.Context, lecture lectures.Lecture) (lectures.Lecture, error) {
	return lecture, nil
}

func (r *lectureRepo) SoftDelete(ctx context.Context, schoolID, id int64) error {
	return nil
}

type memoryRepo struct {
	comments map[int64]Comment
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{comments: make(map[int64]Comment)}
}

func (r *memoryRepo) List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Comment, int, error) {
	var out []Comment
	for _, c := range r.comments {
		if c.SchoolID == schoolID && c.LectureID == lectureID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) FindByID(ctx context.Context, schoolID, lectureID, id int64) (Comment, error) {
	c, ok := r.comments[id]
	if !ok || c.SchoolID != schoolID || c.LectureID != lectureID {
		return Comment{}, httpx.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) Create(ctx context.Context, comment Comment) (Comment, error) {
	r.nextID++
	comment.ID = r.nextID
	r.comments[comment.ID] = comment
	return comment, nil
}

func (r *memoryRepo) Update(ctx context.Context, comment Comment) (Comment, error) {
	r.comments[comment.ID] = comment
	return comment, nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, schoolID, lectureID, id int64) error {
	delete(r.comments, id)
	return nil
}

func fixture() (*Service, *memoryRepo) {
	start := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	lrepo := &lectureRepo{lecture: lectures.Lecture{
		ID:        7,
		SchoolID:  1,
		SubjectID: 3,
		ClassID:   5,
		Name:      "Algebra I",
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
	}}
	noTeachers := func(ctx context.Context, schoolID, subjectID, memberID int64) (bool, error) {
		return false, nil
	}
	repo := newMemoryRepo()
	return NewService(repo, lectures.NewService(lrepo, noTeachers)), repo
}

func roleCtx(role acl.Role, memberID int64) context.Context {
	schoolID := int64(1)
	return shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User: &shared.UserClaims{
			ID:   700,
			Role: acl.RoleUser,
			Member: &shared.MemberClaims{
				ID:       memberID,
				SchoolID: 1,
				UserID:   700,
				Role:     role,
			},
		},
	})
}

func seedComment(t *testing.T, repo *memoryRepo, authorID int64) Comment {
	t.Helper()
	comment, err := repo.Create(context.Background(), Comment{
		SchoolID:  1,
		LectureID: 7,
		AuthorID:  authorID,
		Title:     "Homework",
		Post:      "Exercises 1 through 5 are due Friday.",
	})
	require.NoError(t, err)
	return comment
}

func TestAuthorEditsOwnComment(t *testing.T) {
	svc, repo := fixture()
	comment := seedComment(t, repo, 30)

	post := "Exercises 1 through 8 are due Friday."
	updated, err := svc.Update(roleCtx(acl.RoleStudent, 30), 1, 7, comment.ID, UpdateInput{Post: &post})
	require.NoError(t, err)
	require.Equal(t, post, updated.Post)
}

func TestNonAuthorCannotEditComment(t *testing.T) {
	svc, repo := fixture()
	comment := seedComment(t, repo, 30)

	post := "hijacked"
	_, err := svc.Update(roleCtx(acl.RoleStudent, 31), 1, 7, comment.ID, UpdateInput{Post: &post})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	err = svc.Delete(roleCtx(acl.RoleTeacher, 31), 1, 7, comment.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestAuthorDeletesOwnComment(t *testing.T) {
	svc, repo := fixture()
	comment := seedComment(t, repo, 30)

	require.NoError(t, svc.Delete(roleCtx(acl.RoleStudent, 30), 1, 7, comment.ID))

	_, err := repo.FindByID(context.Background(), 1, 7, comment.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestSchoolAdminModeratesAnyComment(t *testing.T) {
	svc, repo := fixture()
	comment := seedComment(t, repo, 30)

	require.NoError(t, svc.Delete(roleCtx(acl.RoleAdmin, 40), 1, 7, comment.ID))
}

func TestCreateAttachesAuthor(t *testing.T) {
	svc, _ := fixture()

	comment, err := svc.Create(roleCtx(acl.RoleStudent, 30), 1, 7, CreateInput{
		Title: "Question",
		Post:  "Is exercise 4 optional?",
	})
	require.NoError(t, err)
	require.Equal(t, int64(30), comment.AuthorID)
}
