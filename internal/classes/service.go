package classes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// CreateInput carries the fields for a new class.
type CreateInput struct {
	Name    string
	StartAt time.Time
	EndAt   time.Time
}

// UpdateInput carries the mutable class fields. Nil means unchanged.
type UpdateInput struct {
	Name    *string
	StartAt *time.Time
	EndAt   *time.Time
}

// Service orchestrates class and enrollment operations.
type Service struct {
	repo          Repository
	policy        *acl.Policy[Class]
	studentPolicy *acl.Policy[ClassStudent]
}

// NewService constructs a Service. The class policy closes over the
// repository so the student read rule checks real enrollment.
func NewService(repo Repository) *Service {
	return &Service{
		repo:          repo,
		policy:        NewPolicy(repo.IsEnrolled),
		studentPolicy: NewStudentPolicy(),
	}
}

// List returns the school's classes.
func (s *Service) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Class, int, error) {
	if err := s.authorize(ctx, acl.ActionList, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, schoolID, params)
}

// Get returns one class. Students only see classes they are enrolled in.
func (s *Service) Get(ctx context.Context, schoolID, id int64) (Class, error) {
	class, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Class{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &class); err != nil {
		return Class{}, err
	}
	return class, nil
}

// Create adds a class to the school.
func (s *Service) Create(ctx context.Context, schoolID int64, input CreateInput) (Class, error) {
	if !input.EndAt.After(input.StartAt) {
		return Class{}, fmt.Errorf("%w: endAt must be after startAt", httpx.ErrValidation)
	}
	if err := s.authorize(ctx, acl.ActionCreate, nil); err != nil {
		return Class{}, err
	}
	return s.repo.Create(ctx, Class{
		SchoolID: schoolID,
		Name:     strings.TrimSpace(input.Name),
		StartAt:  input.StartAt,
		EndAt:    input.EndAt,
	})
}

// Update patches a class.
func (s *Service) Update(ctx context.Context, schoolID, id int64, input UpdateInput) (Class, error) {
	class, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Class{}, err
	}
	if err := s.authorize(ctx, acl.ActionUpdate, &class); err != nil {
		return Class{}, err
	}

	if input.Name != nil {
		class.Name = strings.TrimSpace(*input.Name)
	}
	if input.StartAt != nil {
		class.StartAt = *input.StartAt
	}
	if input.EndAt != nil {
		class.EndAt = *input.EndAt
	}
	if !class.EndAt.After(class.StartAt) {
		return Class{}, fmt.Errorf("%w: endAt must be after startAt", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, class)
}

// Delete soft-deletes a class.
func (s *Service) Delete(ctx context.Context, schoolID, id int64) error {
	class, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, acl.ActionDelete, &class); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, schoolID, id)
}

// ListStudents returns the class roster.
func (s *Service) ListStudents(ctx context.Context, schoolID, classID int64, params shared.PageParams) ([]ClassStudent, int, error) {
	if _, err := s.repo.FindByID(ctx, schoolID, classID); err != nil {
		return nil, 0, err
	}
	if err := s.authorizeStudent(ctx, acl.ActionList); err != nil {
		return nil, 0, err
	}
	return s.repo.ListStudents(ctx, schoolID, classID, params)
}

// Enroll adds a member (looked up by platform user id) to the class.
func (s *Service) Enroll(ctx context.Context, schoolID, classID, userID int64) (ClassStudent, error) {
	if _, err := s.repo.FindByID(ctx, schoolID, classID); err != nil {
		return ClassStudent{}, err
	}
	if err := s.authorizeStudent(ctx, acl.ActionCreate); err != nil {
		return ClassStudent{}, err
	}
	return s.repo.Enroll(ctx, schoolID, classID, userID)
}

// Unenroll removes a member from the class roster.
func (s *Service) Unenroll(ctx context.Context, schoolID, classID, userID int64) error {
	if _, err := s.repo.FindByID(ctx, schoolID, classID); err != nil {
		return err
	}
	if err := s.authorizeStudent(ctx, acl.ActionDelete); err != nil {
		return err
	}
	return s.repo.Unenroll(ctx, schoolID, classID, userID)
}

// IsEnrolled reports whether the member is on the class roster.
func (s *Service) IsEnrolled(ctx context.Context, classID, memberID int64) (bool, error) {
	return s.repo.IsEnrolled(ctx, classID, memberID)
}

func (s *Service) authorize(ctx context.Context, action acl.Action, class *Class) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, action, class)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}

func (s *Service) authorizeStudent(ctx context.Context, action acl.Action) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.studentPolicy.Can(ctx, actor, action, nil)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
