package schools

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/members"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
	"github.com/akademos/akademos/internal/users"
)

// CreateInput carries the fields for registering a school.
type CreateInput struct {
	Name        string
	FantasyName string
	TaxID       string
	Address     string
	City        string
	State       string
}

// UpdateInput carries the mutable school fields. Nil means unchanged.
type UpdateInput struct {
	Name        *string
	FantasyName *string
	Address     *string
	City        *string
	State       *string
}

// Service orchestrates tenant operations.
type Service struct {
	repo    Repository
	users   *users.Service
	members *members.Service
	policy  *acl.Policy[School]
	title   cases.Caser
}

// NewService constructs a Service.
func NewService(repo Repository, userSvc *users.Service, memberSvc *members.Service) *Service {
	return &Service{
		repo:    repo,
		users:   userSvc,
		members: memberSvc,
		policy:  NewPolicy(),
		title:   cases.Title(language.BrazilianPortuguese),
	}
}

// List returns schools: all of them for global admins, otherwise only
// the ones the caller is a member of.
func (s *Service) List(ctx context.Context, params shared.PageParams) ([]School, int, error) {
	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.Actor()
	if !ok {
		return nil, 0, httpx.ErrForbidden
	}
	if rc.IsGlobalAdmin() {
		return s.repo.List(ctx, params)
	}
	return s.repo.ListForUser(ctx, actor.ID, params)
}

// Get returns one school.
func (s *Service) Get(ctx context.Context, id int64) (School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if err := s.authorize(ctx, acl.ActionRead, &school); err != nil {
		return School{}, err
	}
	return school, nil
}

// Create registers a school and enrolls the creator as its first ADMIN
// member so the tenant is never orphaned.
func (s *Service) Create(ctx context.Context, input CreateInput) (School, error) {
	exists, err := s.repo.ExistsByTaxID(ctx, input.TaxID)
	if err != nil {
		return School{}, err
	}
	if exists {
		return School{}, fmt.Errorf("%w: a school with this tax id already exists", httpx.ErrDuplicate)
	}

	if err := s.authorize(ctx, acl.ActionCreate, nil); err != nil {
		return School{}, err
	}

	school, err := s.repo.Create(ctx, School{
		Name:        strings.TrimSpace(input.Name),
		FantasyName: s.title.String(strings.TrimSpace(input.FantasyName)),
		TaxID:       strings.TrimSpace(input.TaxID),
		Address:     strings.TrimSpace(input.Address),
		City:        s.title.String(strings.TrimSpace(input.City)),
		State:       strings.ToUpper(strings.TrimSpace(input.State)),
	})
	if err != nil {
		return School{}, err
	}

	rc := shared.RequestContextFrom(ctx)
	creator, err := s.users.FindByID(ctx, rc.User.ID)
	if err != nil {
		return School{}, err
	}
	if _, err := s.members.Create(ctx, school.ID, members.CreateInput{
		FirstName: creator.FirstName,
		LastName:  creator.LastName,
		Email:     creator.Email,
		Phone:     creator.Phone,
		TaxID:     creator.TaxID,
		Role:      acl.RoleAdmin,
	}); err != nil {
		return School{}, err
	}

	return school, nil
}

// Update mutates a school.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return School{}, err
	}
	if err := s.authorize(ctx, acl.ActionUpdate, &school); err != nil {
		return School{}, err
	}

	if input.Name != nil {
		school.Name = strings.TrimSpace(*input.Name)
	}
	if input.FantasyName != nil {
		school.FantasyName = s.title.String(strings.TrimSpace(*input.FantasyName))
	}
	if input.Address != nil {
		school.Address = strings.TrimSpace(*input.Address)
	}
	if input.City != nil {
		school.City = s.title.String(strings.TrimSpace(*input.City))
	}
	if input.State != nil {
		school.State = strings.ToUpper(strings.TrimSpace(*input.State))
	}
	return s.repo.Update(ctx, school)
}

// Delete soft-deletes a school.
func (s *Service) Delete(ctx context.Context, id int64) error {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, acl.ActionDelete, &school); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) authorize(ctx context.Context, action acl.Action, school *School) error {
	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.Actor()
	if !ok {
		return httpx.ErrForbidden
	}
	allowed, err := s.policy.Can(ctx, actor, action, school)
	if err != nil {
		return err
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}
