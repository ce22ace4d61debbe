package subjects

import (
	"context"
	"strings"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// CreateInput carries the fields for a new subject.
type CreateInput struct {
	Name        string
	Description string
}

// UpdateInput carries the mutable subject fields. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Service orchestrates subject and teacher-assignment operations.
type Service struct {
	repo          Repository
	policy        *acl.Policy[Subject]
	teacherPolicy *acl.Policy[SubjectTeacher]
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, policy: NewPolicy(), teacherPolicy: NewTeacherPolicy()}
}

// List returns the school's subjects. Teachers see only the subjects they
// are assigned to.
func (s *Service) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Subject, int, error) {
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
	if actor.Role == acl.RoleTeacher {
		return s.repo.ListForTeacher(ctx, schoolID, actor.ID, params)
	}
	return s.repo.List(ctx, schoolID, params)
}

// Get returns one subject.
func (s *Service) Get(ctx context.Context, schoolID, id int64) (Subject, error) {
	subject, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Subject{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &subject); err != nil {
		return Subject{}, err
	}
	return subject, nil
}

// Create adds a subject to the school.
func (s *Service) Create(ctx context.Context, schoolID int64, input CreateInput) (Subject, error) {
	if err := s.authorize(ctx, acl.ActionCreate, nil); err != nil {
		return Subject{}, err
	}
	return s.repo.Create(ctx, Subject{
		SchoolID:    schoolID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	})
}

// Update patches a subject.
func (s *Service) Update(ctx context.Context, schoolID, id int64, input UpdateInput) (Subject, error) {
	subject, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Subject{}, err
	}
	if err := s.authorize(ctx, acl.ActionUpdate, &subject); err != nil {
		return Subject{}, err
	}

	if input.Name != nil {
		subject.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		subject.Description = strings.TrimSpace(*input.Description)
	}
	return s.repo.Update(ctx, subject)
}

// Delete soft-deletes a subject.
func (s *Service) Delete(ctx context.Context, schoolID, id int64) error {
	subject, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, acl.ActionDelete, &subject); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, schoolID, id)
}

// ListTeachers returns the members assigned to teach a subject.
func (s *Service) ListTeachers(ctx context.Context, schoolID, subjectID int64, params shared.PageParams) ([]SubjectTeacher, int, error) {
	if _, err := s.repo.FindByID(ctx, schoolID, subjectID); err != nil {
		return nil, 0, err
	}
	if err := s.authorizeTeacher(ctx, acl.ActionList); err != nil {
		return nil, 0, err
	}
	return s.repo.ListTeachers(ctx, schoolID, subjectID, params)
}

// AssignTeacher puts a member (looked up by platform user id) on the
// subject's teaching roster.
func (s *Service) AssignTeacher(ctx context.Context, schoolID, subjectID, userID int64) (SubjectTeacher, error) {
	if _, err := s.repo.FindByID(ctx, schoolID, subjectID); err != nil {
		return SubjectTeacher{}, err
	}
	if err := s.authorizeTeacher(ctx, acl.ActionCreate); err != nil {
		return SubjectTeacher{}, err
	}
	return s.repo.AssignTeacher(ctx, schoolID, subjectID, userID)
}

// RemoveTeacher takes a member off the subject's teaching roster.
func (s *Service) RemoveTeacher(ctx context.Context, schoolID, subjectID, userID int64) error {
	if _, err := s.repo.FindByID(ctx, schoolID, subjectID); err != nil {
		return err
	}
	if err := s.authorizeTeacher(ctx, acl.ActionDelete); err != nil {
		return err
	}
	return s.repo.RemoveTeacher(ctx, schoolID, subjectID, userID)
}

// IsSubjectTeacher reports whether the member teaches the subject. Lecture
// policies use this as their ownership predicate.
func (s *Service) IsSubjectTeacher(ctx context.Context, schoolID, subjectID, memberID int64) (bool, error) {
	return s.repo.IsTeacher(ctx, schoolID, subjectID, memberID)
}

func (s *Service) authorize(ctx context.Context, action acl.Action, subject *Subject) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, action, subject)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}

func (s *Service) authorizeTeacher(ctx context.Context, action acl.Action) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.teacherPolicy.Can(ctx, actor, action, nil)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
