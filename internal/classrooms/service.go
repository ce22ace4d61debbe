package classrooms

import (
	"context"
	"strings"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// CreateInput carries the fields for a new classroom.
type CreateInput struct {
	Name           string
	Latitude       *float64
	Longitude      *float64
	LocationRadius *int
}

// UpdateInput carries the mutable classroom fields. Nil means unchanged.
type UpdateInput struct {
	Name           *string
	Latitude       *float64
	Longitude      *float64
	LocationRadius *int
}

// Service orchestrates classroom operations.
type Service struct {
	repo   Repository
	policy *acl.Policy[Classroom]
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, policy: NewPolicy()}
}

// List returns the school's classrooms.
func (s *Service) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Classroom, int, error) {
	if err := s.authorize(ctx, acl.ActionList, nil); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, schoolID, params)
}

// Get returns one classroom.
func (s *Service) Get(ctx context.Context, schoolID, id int64) (Classroom, error) {
	room, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Classroom{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &room); err != nil {
		return Classroom{}, err
	}
	return room, nil
}

// Create adds a classroom to the school.
func (s *Service) Create(ctx context.Context, schoolID int64, input CreateInput) (Classroom, error) {
	if err := s.authorize(ctx, acl.ActionCreate, nil); err != nil {
		return Classroom{}, err
	}
	return s.repo.Create(ctx, Classroom{
		SchoolID:       schoolID,
		Name:           strings.TrimSpace(input.Name),
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		LocationRadius: input.LocationRadius,
	})
}

// Update patches a classroom.
func (s *Service) Update(ctx context.Context, schoolID, id int64, input UpdateInput) (Classroom, error) {
	room, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return Classroom{}, err
	}
	if err := s.authorize(ctx, acl.ActionUpdate, &room); err != nil {
		return Classroom{}, err
	}

	if input.Name != nil {
		room.Name = strings.TrimSpace(*input.Name)
	}
	if input.Latitude != nil {
		room.Latitude = input.Latitude
	}
	if input.Longitude != nil {
		room.Longitude = input.Longitude
	}
	if input.LocationRadius != nil {
		room.LocationRadius = input.LocationRadius
	}
	return s.repo.Update(ctx, room)
}

// Delete soft-deletes a classroom.
func (s *Service) Delete(ctx context.Context, schoolID, id int64) error {
	room, err := s.repo.FindByID(ctx, schoolID, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, acl.ActionDelete, &room); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, schoolID, id)
}

func (s *Service) authorize(ctx context.Context, action acl.Action, room *Classroom) error {
	rc := shared.RequestContextFrom(ctx)
	if rc.IsGlobalAdmin() {
		return nil
	}
	actor, ok := rc.MemberActor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, action, room)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
