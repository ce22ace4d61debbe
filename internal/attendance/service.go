package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/lectures"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// ErrOutsideWindow rejects a check attempt made outside both the check-in
// and check-out windows, or one that would replay a finished record.
var ErrOutsideWindow = fmt.Errorf("%w: no valid attendance within the time restriction", httpx.ErrUnauthorized)

// LectureDirectory resolves the lecture a check targets. The lectures
// service provides the production implementation.
type LectureDirectory interface {
	Find(ctx context.Context, schoolID, id int64) (lectures.Lecture, error)
}

// Service orchestrates attendance reads and the check-in/check-out flow.
type Service struct {
	repo     Repository
	lectures LectureDirectory
	policy   *acl.Policy[Attendance]
	now      Clock
}

// NewService constructs a Service. A nil clock defaults to time.Now.
func NewService(repo Repository, lectureSvc LectureDirectory, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{repo: repo, lectures: lectureSvc, policy: NewPolicy(), now: clock}
}

// List returns the attendance sheet of a lecture.
func (s *Service) List(ctx context.Context, schoolID, lectureID int64, params shared.PageParams) ([]Attendance, int, error) {
	if _, err := s.lectures.Find(ctx, schoolID, lectureID); err != nil {
		return nil, 0, err
	}
	if err := s.authorize(ctx, acl.ActionList, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, schoolID, lectureID, params)
}

// Get returns one attendance record. Students only see their own.
func (s *Service) Get(ctx context.Context, schoolID, lectureID, id int64) (Attendance, error) {
	if _, err := s.lectures.Find(ctx, schoolID, lectureID); err != nil {
		return Attendance{}, err
	}
	record, err := s.repo.FindByID(ctx, schoolID, lectureID, id)
	if err != nil {
		return Attendance{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &record); err != nil {
		return Attendance{}, err
	}
	return record, nil
}

// Check advances the caller's attendance for a lecture by one step:
// no record inside the check-in window creates one, an open record inside
// the check-out window closes it. Anything else is rejected with
// ErrOutsideWindow. A closed record never reopens.
func (s *Service) Check(ctx context.Context, schoolID, lectureID int64) (Attendance, error) {
	lecture, err := s.lectures.Find(ctx, schoolID, lectureID)
	if err != nil {
		return Attendance{}, err
	}

	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.MemberActor()
	if !ok {
		return Attendance{}, httpx.ErrForbidden
	}

	var existing *Attendance
	record, err := s.repo.FindByStudent(ctx, schoolID, lectureID, actor.ID)
	switch {
	case err == nil:
		existing = &record
	case errors.Is(err, httpx.ErrNotFound):
	default:
		return Attendance{}, err
	}

	now := s.now().UTC()
	switch {
	case StateOf(existing) == StateNoRecord && WithinCheckInWindow(now, lecture.StartAt):
		candidate := Attendance{
			SchoolID:  schoolID,
			LectureID: lectureID,
			StudentID: actor.ID,
			StartAt:   &now,
		}
		if err := s.authorizeActor(ctx, rc, actor, acl.ActionCreate, &candidate); err != nil {
			return Attendance{}, err
		}
		return s.repo.Create(ctx, candidate)

	case StateOf(existing) == StateCheckedIn && WithinCheckOutWindow(now, lecture.EndAt):
		if err := s.authorizeActor(ctx, rc, actor, acl.ActionUpdate, existing); err != nil {
			return Attendance{}, err
		}
		return s.repo.SetCheckout(ctx, existing.ID, now)

	default:
		return Attendance{}, ErrOutsideWindow
	}
}

func (s *Service) authorize(ctx context.Context, action acl.Action, record *Attendance) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	return s.can(ctx, actor, action, record)
}

func (s *Service) authorizeActor(ctx context.Context, rc *shared.RequestContext, actor acl.Actor, action acl.Action, record *Attendance) error {
	if rc.IsGlobalAdmin() {
		return nil
	}
	return s.can(ctx, actor, action, record)
}

func (s *Service) can(ctx context.Context, actor acl.Actor, action acl.Action, record *Attendance) error {
	allowed, err := s.policy.Can(ctx, actor, action, record)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
