package lectures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

type memoryRepo struct {
	lectures map[int64]Lecture
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{lectures: make(map[int64]Lecture)}
}

func (r *memoryRepo) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Lecture, int, error) {
	var out []Lecture
	for _, l := range r.lectures {
		if l.SchoolID == schoolID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) ListForTeacher(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Lecture, int, error) {
	return nil, 0, nil
}

func (r *memoryRepo) ListForStudent(ctx context.Context, schoolID, memberID int64, params shared.PageParams) ([]Lecture, int, error) {
	return nil, 0, nil
}

func (r *memoryRepo) FindByID(ctx context.Context, schoolID, id int64) (Lecture, error) {
	l, ok := r.lectures[id]
	if !ok || l.SchoolID != schoolID {
		return Lecture{}, httpx.ErrNotFound
	}
	return l, nil
}

func (r *memoryRepo) Create(ctx context.Context, lecture Lecture) (Lecture, error) {
	r.nextID++
	lecture.ID = r.nextID
	r.lectures[lecture.ID] = lecture
	return lecture, nil
}

func (r *memoryRepo) Update(ctx context.Context, lecture Lecture) (Lecture, error) {
	r.lectures[lecture.ID] = lecture
	return lecture, nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, schoolID, id int64) error {
	delete(r.lectures, id)
	return nil
}

// teachesSubjects maps member id to the subject ids they teach.
func teachesSubjects(assignments map[int64][]int64) TeacherLookup {
	return func(ctx context.Context, schoolID, subjectID, memberID int64) (bool, error) {
		for _, id := range assignments[memberID] {
			if id == subjectID {
				return true, nil
			}
		}
		return false, nil
	}
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

func seedLecture(t *testing.T, repo *memoryRepo, subjectID int64) Lecture {
	t.Helper()
	start := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	lecture, err := repo.Create(context.Background(), Lecture{
		SchoolID:  1,
		SubjectID: subjectID,
		ClassID:   5,
		Name:      "Algebra I",
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	return lecture
}

func TestTeacherReadsOwnSubjectLectures(t *testing.T) {
	repo := newMemoryRepo()
	lecture := seedLecture(t, repo, 3)
	svc := NewService(repo, teachesSubjects(map[int64][]int64{20: {3}}))

	got, err := svc.Get(roleCtx(acl.RoleTeacher, 20), 1, lecture.ID)
	require.NoError(t, err)
	require.Equal(t, lecture.ID, got.ID)

	_, err = svc.Get(roleCtx(acl.RoleTeacher, 21), 1, lecture.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestTeacherUpdatesOnlyOwnSubjectLectures(t *testing.T) {
	repo := newMemoryRepo()
	lecture := seedLecture(t, repo, 3)
	svc := NewService(repo, teachesSubjects(map[int64][]int64{20: {3}}))

	name := "Algebra I review"
	got, err := svc.Update(roleCtx(acl.RoleTeacher, 20), 1, lecture.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, got.Name)

	_, err = svc.Update(roleCtx(acl.RoleTeacher, 21), 1, lecture.ID, UpdateInput{Name: &name})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestTeacherSchedulesLectures(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, teachesSubjects(nil))

	start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	lecture, err := svc.Create(roleCtx(acl.RoleTeacher, 20), 1, CreateInput{
		Name:      "Geometry",
		SubjectID: 4,
		ClassID:   5,
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NotZero(t, lecture.ID)
}

func TestStudentCannotUpdateLecture(t *testing.T) {
	repo := newMemoryRepo()
	lecture := seedLecture(t, repo, 3)
	svc := NewService(repo, teachesSubjects(nil))

	name := "Hijacked"
	_, err := svc.Update(roleCtx(acl.RoleStudent, 42), 1, lecture.ID, UpdateInput{Name: &name})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateRejectsInvertedInterval(t *testing.T) {
	svc := NewService(newMemoryRepo(), teachesSubjects(nil))

	start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	_, err := svc.Create(roleCtx(acl.RoleFaculty, 10), 1, CreateInput{
		Name:      "Backwards",
		SubjectID: 4,
		ClassID:   5,
		StartAt:   start,
		EndAt:     start.Add(-time.Minute),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
