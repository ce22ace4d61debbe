package attendance

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

type memoryRepo struct {
	records map[int64]Attendance
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[int64]Attendance)}
}

func (r *memoryRepo) List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Attendance, int, error) {
	var out []Attendance
	for _, a := range r.records {
		if a.SchoolID == schoolID && a.LectureID == lectureID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) FindByID(ctx context.Context, schoolID, lectureID, id int64) (Attendance, error) {
	a, ok := r.records[id]
	if !ok || a.SchoolID != schoolID || a.LectureID != lectureID {
		return Attendance{}, httpx.ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) FindByStudent(ctx context.Context, schoolID, lectureID, studentID int64) (Attendance, error) {
	for _, a := range r.records {
		if a.SchoolID == schoolID && a.LectureID == lectureID && a.StudentID == studentID {
			return a, nil
		}
	}
	return Attendance{}, httpx.ErrNotFound
}

func (r *memoryRepo) Create(ctx context.Context, record Attendance) (Attendance, error) {
	r.nextID++
	record.ID = r.nextID
	r.records[record.ID] = record
	return record, nil
}

func (r *memoryRepo) SetCheckout(ctx context.Context, id int64, endAt time.Time) (Attendance, error) {
	a, ok := r.records[id]
	if !ok || a.EndAt != nil {
		return Attendance{}, httpx.ErrNotFound
	}
	a.EndAt = &endAt
	r.records[id] = a
	return a, nil
}

type staticLectures struct {
	lecture lectures.Lecture
}

func (d staticLectures) Find(ctx context.Context, schoolID, id int64) (lectures.Lecture, error) {
	if d.lecture.SchoolID != schoolID || d.lecture.ID != id {
		return lectures.Lecture{}, httpx.ErrNotFound
	}
	return d.lecture, nil
}

func studentCtx(memberID int64) context.Context {
	schoolID := int64(1)
	return shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User: &shared.UserClaims{
			ID:   500,
			Role: acl.RoleUser,
			Member: &shared.MemberClaims{
				ID:       memberID,
				SchoolID: 1,
				UserID:   500,
				Role:     acl.RoleStudent,
			},
		},
	})
}

func fixture(clock Clock) (*Service, *memoryRepo, lectures.Lecture) {
	lecture := lectures.Lecture{
		ID:       10,
		SchoolID: 1,
		StartAt:  time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
	}
	repo := newMemoryRepo()
	svc := NewService(repo, staticLectures{lecture: lecture}, clock)
	return svc, repo, lecture
}

func clockAt(t time.Time) Clock {
	return func() time.Time { return t }
}

// lecture10 mirrors the fixture lecture so clocks can be expressed
// relative to its schedule.
var lecture10 = lectures.Lecture{
	StartAt: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	EndAt:   time.Date(2026, 3, 9, 11, 0, 0, 0, time.UTC),
}

func TestCheckInsideCheckInWindow(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt.Add(2 * time.Minute)))

	record, err := svc.Check(studentCtx(7), 1, 10)
	require.NoError(t, err)
	require.Equal(t, StateCheckedIn, StateOf(&record))
	require.Equal(t, int64(7), record.StudentID)
	require.NotNil(t, record.StartAt)
	require.Nil(t, record.EndAt)
}

func TestCheckBeforeWindowRejected(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt.Add(-6 * time.Minute)))

	_, err := svc.Check(studentCtx(7), 1, 10)
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	require.ErrorIs(t, err, ErrOutsideWindow)
}

func TestCheckTwiceDuringCheckInWindowRejected(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt.Add(2 * time.Minute)))

	ctx := studentCtx(7)
	_, err := svc.Check(ctx, 1, 10)
	require.NoError(t, err)

	// Still inside the check-in window but outside the check-out window:
	// the open record cannot advance yet.
	_, err = svc.Check(ctx, 1, 10)
	require.ErrorIs(t, err, ErrOutsideWindow)
}

func TestCheckOutAfterCheckIn(t *testing.T) {
	svc, repo, _ := fixture(clockAt(lecture10.StartAt.Add(2 * time.Minute)))

	ctx := studentCtx(7)
	first, err := svc.Check(ctx, 1, 10)
	require.NoError(t, err)

	svc.now = clockAt(lecture10.EndAt.Add(-3 * time.Minute))
	second, err := svc.Check(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, StateCheckedOut, StateOf(&second))

	stored := repo.records[first.ID]
	require.NotNil(t, stored.EndAt)
}

func TestCheckOutWithoutCheckInRejected(t *testing.T) {
	// Inside the check-out window but no record exists: the flow never
	// skips straight to checked out.
	svc, _, _ := fixture(clockAt(lecture10.EndAt.Add(-3 * time.Minute)))

	_, err := svc.Check(studentCtx(7), 1, 10)
	require.ErrorIs(t, err, ErrOutsideWindow)
}

func TestCheckedOutRecordNeverReopens(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt.Add(2 * time.Minute)))

	ctx := studentCtx(7)
	_, err := svc.Check(ctx, 1, 10)
	require.NoError(t, err)

	svc.now = clockAt(lecture10.EndAt)
	_, err = svc.Check(ctx, 1, 10)
	require.NoError(t, err)

	_, err = svc.Check(ctx, 1, 10)
	require.ErrorIs(t, err, ErrOutsideWindow)
}

func TestCheckAfterCheckOutWindowRejected(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.EndAt.Add(6 * time.Minute)))

	_, err := svc.Check(studentCtx(7), 1, 10)
	require.ErrorIs(t, err, ErrOutsideWindow)
}

func TestCheckUnknownLecture(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt))

	_, err := svc.Check(studentCtx(7), 1, 999)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCheckWithoutMembershipForbidden(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt))

	ctx := shared.WithRequestContext(context.Background(), &shared.RequestContext{
		User: &shared.UserClaims{ID: 500, Role: acl.RoleUser},
	})
	_, err := svc.Check(ctx, 1, 10)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestStudentReadsOwnRecordOnly(t *testing.T) {
	svc, repo, _ := fixture(clockAt(lecture10.StartAt))

	startAt := lecture10.StartAt
	record, err := repo.Create(context.Background(), Attendance{
		SchoolID: 1, LectureID: 10, StudentID: 7, StartAt: &startAt,
	})
	require.NoError(t, err)

	got, err := svc.Get(studentCtx(7), 1, 10, record.ID)
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)

	_, err = svc.Get(studentCtx(8), 1, 10, record.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestStudentCannotListSheet(t *testing.T) {
	svc, _, _ := fixture(clockAt(lecture10.StartAt))

	_, _, err := svc.List(studentCtx(7), 1, 10, shared.PageParams{Limit: 20})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestTeacherListsSheet(t *testing.T) {
	svc, repo, _ := fixture(clockAt(lecture10.StartAt))

	startAt := lecture10.StartAt
	_, err := repo.Create(context.Background(), Attendance{
		SchoolID: 1, LectureID: 10, StudentID: 7, StartAt: &startAt,
	})
	require.NoError(t, err)

	schoolID := int64(1)
	ctx := shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User: &shared.UserClaims{
			ID:   600,
			Role: acl.RoleUser,
			Member: &shared.MemberClaims{
				ID: 20, SchoolID: 1, UserID: 600, Role: acl.RoleTeacher,
			},
		},
	})
	list, total, err := svc.List(ctx, 1, 10, shared.PageParams{Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
}

func TestGlobalAdminListsSheetWithoutMembership(t *testing.T) {
	svc, repo, _ := fixture(clockAt(lecture10.StartAt))

	startAt := lecture10.StartAt
	record, err := repo.Create(context.Background(), Attendance{
		SchoolID: 1, LectureID: 10, StudentID: 7, StartAt: &startAt,
	})
	require.NoError(t, err)

	schoolID := int64(1)
	ctx := shared.WithRequestContext(context.Background(), &shared.RequestContext{
		SchoolID: &schoolID,
		User:     &shared.UserClaims{ID: 1, Role: acl.RoleAdmin},
	})

	list, total, err := svc.List(ctx, 1, 10, shared.PageParams{Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)

	got, err := svc.Get(ctx, 1, 10, record.ID)
	require.NoError(t, err)
	require.Equal(t, record.ID, got.ID)
}
