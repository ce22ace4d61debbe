package lectures

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// CreateInput carries the fields for scheduling a lecture.
type CreateInput struct {
	Name        string
	SubjectID   int64
	ClassID     int64
	ClassroomID *int64
	StartAt     time.Time
	EndAt       time.Time
}

// UpdateInput carries the mutable lecture fields. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	SubjectID   *int64
	ClassID     *int64
	ClassroomID *int64
	StartAt     *time.Time
	EndAt       *time.Time
}

// Service orchestrates lecture scheduling.
type Service struct {
	repo   Repository
	policy *acl.Policy[Lecture]
}

// NewService constructs a Service. The teacher lookup comes from the
// subjects service so the ownership rule reads the live assignment table.
func NewService(repo Repository, teaches TeacherLookup) *Service {
	return &Service{repo: repo, policy: NewPolicy(teaches)}
}

// List returns the school's lectures. Teachers see lectures of subjects
// they teach, students see lectures of classes they are enrolled in.
func (s *Service) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Lecture, int, error) {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return s.repo.List(ctx, schoolID, params)
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return nil, 0, httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, acl.ActionList, nil)
	if err != nil {
		return nil, 0, err
	}
	if !allowed {
		return nil, 0, httpx.ErrForbidden
	}
	switch actor.Role {
	case acl.RoleTeacher:
		return s.repo.ListForTeacher(ctx, schoolID, actor.ID, params)
	case acl.RoleStudent:
		return s.repo.ListForStudent(ctx, schoolID, actor.ID, params)
	default:
		return s.repo.List(ctx, schoolID, params)
	}
}

// Get returns one lecture.
func (s *Service) Get(ctx context.Context, schoolID, id int64) (Lecture, error) {
	lecture, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Lecture{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &lecture); err != nil {
		return Lecture{}, err
	}
	return lecture, nil
}

// Create schedules a lecture.
func (s *Service) Create(ctx context.Context, schoolID int64, input CreateInput) (Lecture, error) {
	if !input.EndAt.After(input.StartAt) {
		return Lecture{}, fmt.Errorf("%w: endAt must be after startAt", httpx.ErrValidation)
	}
	if err := s.authorize(ctx, acl.ActionCreate, nil); err != nil {
		return Lecture{}, err
	}
	return s.repo.Create(ctx, Lecture{
		SchoolID:    schoolID,
		SubjectID:   input.SubjectID,
		ClassID:     input.ClassID,
		ClassroomID: input.ClassroomID,
		Name:        strings.TrimSpace(input.Name),
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
	})
}

// Update patches a lecture.
func (s *Service) Update(ctx context.Context, schoolID, id int64, input UpdateInput) (Lecture, error) {
	lecture, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Lecture{}, err
	}
	if err := s.authorize(ctx, acl.ActionUpdate, &lecture); err != nil {
		return Lecture{}, err
	}

	if input.Name != nil {
		lecture.Name = strings.TrimSpace(*input.Name)
	}
	if input.SubjectID != nil {
		lecture.SubjectID = *input.SubjectID
	}
	if input.ClassID != nil {
		lecture.ClassID = *input.ClassID
	}
	if input.ClassroomID != nil {
		lecture.ClassroomID = input.ClassroomID
	}
	if input.StartAt != nil {
		lecture.StartAt = *input.StartAt
	}
	if input.EndAt != nil {
		lecture.EndAt = *input.EndAt
	}
	if !lecture.EndAt.After(lecture.StartAt) {
		return Lecture{}, fmt.Errorf("%w: endAt must be after startAt", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, lecture)
}

// Delete soft-deletes a lecture.
func (s *Service) Delete(ctx context.Context, schoolID, id int64) error {
	lecture, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, acl.ActionDelete, &lecture); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, schoolID, id)
}

// Find returns a lecture without an authorization check. The attendance
// and comment services call it after running their own policies.
func (s *Service) Find(ctx context.Context, schoolID, id int64) (Lecture, error) {
	return s.repo.FindByID(ctx, schoolID, id)
}

func (s *Service) authorize(ctx context.Context, action acl.Action, lecture *Lecture) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, action, lecture)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
