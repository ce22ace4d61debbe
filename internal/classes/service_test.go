package classes

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
	classes    map[int64]Class
	enrollment map[int64][]int64 // classID -> member ids
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		classes:    make(map[int64]Class),
		enrollment: make(map[int64][]int64),
	}
}

func (r *memoryRepo) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Class, int, error) {
	var out []Class
	for _, c := range r.classes {
		if c.SchoolID == schoolID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) FindByID(ctx context.Context, schoolID, id int64) (Class, error) {
	c, ok := r.classes[id]
	if !ok || c.SchoolID != schoolID {
		return Class{}, httpx.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) Create(ctx context.Context, class Class) (Class, error) {
	r.nextID++
	class.ID = r.nextID
	r.classes[class.ID] = class
	return class, nil
}

func (r *memoryRepo) Update(ctx context.Context, class Class) (Class, error) {
	r.classes[class.ID] = class
	return class, nil
}

func (r *memoryRepo) SoftDelete(ctx context.Context, schoolID, id int64) error {
	delete(r.classes, id)
	return nil
}

func (r *memoryRepo) ListStudents(ctx context.Context, schoolID, classID int64, params shared.PageParams) ([]ClassStudent, int, error) {
	var out []ClassStudent
	for _, memberID := range r.enrollment[classID] {
		out = append(out, ClassStudent{SchoolID: schoolID, ClassID: classID, MemberID: memberID})
	}
	return out, len(out), nil
}

func (r *memoryRepo) Enroll(ctx context.Context, schoolID, classID, userID int64) (ClassStudent, error) {
	r.enrollment[classID] = append(r.enrollment[classID], userID)
	return ClassStudent{SchoolID: schoolID, ClassID: classID, MemberID: userID}, nil
}

func (r *memoryRepo) Unenroll(ctx context.Context, schoolID, classID, userID int64) error {
	return nil
}

func (r *memoryRepo) IsEnrolled(ctx context.Context, classID, memberID int64) (bool, error) {
	for _, id := range r.enrollment[classID] {
		if id == memberID {
			return true, nil
		}
	}
	return false, nil
}

func roleCtx(role acl.Role, memberID int64) context.Context {
	schoolID := int64(1)
	return shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User: &shared.UserClaims{
			ID:   800,
			Role: acl.RoleUser,
			Member: &shared.MemberClaims{
				ID:       memberID,
				SchoolID: 1,
				UserID:   800,
				Role:     role,
			},
		},
	})
}

func seedClass(t *testing.T, repo *memoryRepo) Class {
	t.Helper()
	start := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	class, err := repo.Create(context.Background(), Class{
		SchoolID: 1,
		Name:     "Class of 2026",
		StartAt:  start,
		EndAt:    start.AddDate(0, 6, 0),
	})
	require.NoError(t, err)
	return class
}

func TestCreateRejectsInvertedInterval(t *testing.T) {
	svc := NewService(newMemoryRepo())

	start := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	_, err := svc.Create(roleCtx(acl.RoleFaculty, 10), 1, CreateInput{
		Name:    "Backwards",
		StartAt: start,
		EndAt:   start.Add(-time.Hour),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRejectsInvertedInterval(t *testing.T) {
	repo := newMemoryRepo()
	class := seedClass(t, repo)
	svc := NewService(repo)

	badEnd := class.StartAt.Add(-time.Minute)
	_, err := svc.Update(roleCtx(acl.RoleFaculty, 10), 1, class.ID, UpdateInput{EndAt: &badEnd})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestStudentReadsOnlyEnrolledClasses(t *testing.T) {
	repo := newMemoryRepo()
	class := seedClass(t, repo)
	repo.enrollment[class.ID] = []int64{42}
	svc := NewService(repo)

	got, err := svc.Get(roleCtx(acl.RoleStudent, 42), 1, class.ID)
	require.NoError(t, err)
	require.Equal(t, class.ID, got.ID)

	_, err = svc.Get(roleCtx(acl.RoleStudent, 43), 1, class.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestStudentCannotCreateClass(t *testing.T) {
	svc := NewService(newMemoryRepo())

	start := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	_, err := svc.Create(roleCtx(acl.RoleStudent, 42), 1, CreateInput{
		Name:    "Rogue",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestGlobalAdminBypassesSchoolPolicies(t *testing.T) {
	repo := newMemoryRepo()
	class := seedClass(t, repo)
	svc := NewService(repo)

	schoolID := int64(1)
	ctx := shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User:     &shared.UserClaims{ID: 1, Role: acl.RoleAdmin},
	})

	got, err := svc.Get(ctx, 1, class.ID)
	require.NoError(t, err)
	require.Equal(t, class.ID, got.ID)

	start := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, 1, CreateInput{
		Name:    "Night Class",
		StartAt: start,
		EndAt:   start.AddDate(0, 4, 0),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestTeacherReadsAnyClass(t *testing.T) {
	repo := newMemoryRepo()
	class := seedClass(t, repo)
	svc := NewService(repo)

	got, err := svc.Get(roleCtx(acl.RoleTeacher, 7), 1, class.ID)
	require.NoError(t, err)
	require.Equal(t, class.Name, got.Name)
}
