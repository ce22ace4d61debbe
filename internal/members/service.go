package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
	"github.com/akademos/akademos/internal/users"
)

// CreateInput carries the fields for enrolling a member. When no account
// exists for the email, one is provisioned with these profile fields.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	TaxID     string
	Role      acl.Role
}

// InviteSender notifies a freshly provisioned account about its enrollment.
type InviteSender interface {
	SendInvite(ctx context.Context, email, firstName string) error
}

// Service orchestrates school roster operations.
type Service struct {
	repo    Repository
	users   *users.Service
	invites InviteSender
	policy  *acl.Policy[Member]
}

// NewService constructs a Service. The invite sender may be nil.
func NewService(repo Repository, userSvc *users.Service, invites InviteSender) *Service {
	return &Service{repo: repo, users: userSvc, invites: invites, policy: NewPolicy()}
}

// List returns the school roster.
func (s *Service) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]Member, int, error) {
	rc := shared.RequestContextFrom(ctx)
	if !rc.IsGlobalAdmin() {
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
	}
	return s.repo.List(ctx, schoolID, params)
}

// Get returns the membership of one user in the school.
func (s *Service) Get(ctx context.Context, schoolID, userID int64) (Member, error) {
	member, err := s.repo.FindByUser(ctx, schoolID, userID)
	if err != nil {
		return Member{}, err
	}
	rc := shared.RequestContextFrom(ctx)
	if !rc.IsGlobalAdmin() {
		actor, ok := rc.MemberActor()
		if !ok {
			return Member{}, httpx.ErrForbidden
		}
		allowed, err := s.policy.Can(ctx, actor, acl.ActionRead, &member)
		if err != nil {
			return Member{}, err
		}
		if !allowed {
			return Member{}, httpx.ErrForbidden
		}
	}
	return member, nil
}

// Create enrolls a member, reusing an existing account by email or
// provisioning one. A member may only grant a role at or below their own.
func (s *Service) Create(ctx context.Context, schoolID int64, input CreateInput) (Member, error) {
	role := input.Role
	if role == "" {
		role = acl.RoleStudent
	}
	if !shared.IsSchoolRole(role) {
		return Member{}, fmt.Errorf("%w: invalid school role %q", httpx.ErrValidation, role)
	}

	rc := shared.RequestContextFrom(ctx)
	if !rc.IsGlobalAdmin() {
		actor, ok := rc.MemberActor()
		if !ok {
			return Member{}, httpx.ErrForbidden
		}
		allowed, err := s.policy.Can(ctx, actor, acl.ActionCreate, nil)
		if err != nil {
			return Member{}, err
		}
		if !allowed || !shared.IsHigherOrEqualRole(actor.Role, role) {
			return Member{}, httpx.ErrForbidden
		}
	}

	provisioned := false
	user, err := s.users.FindByEmail(ctx, input.Email)
	if errors.Is(err, httpx.ErrNotFound) {
		// Invited members get an account with a throwaway password and
		// reset it through the regular flow.
		provisioned = true
		user, err = s.users.Provision(ctx, users.CreateInput{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			TaxID:     input.TaxID,
			Password:  uuid.NewString(),
			Role:      acl.RoleUser,
		})
	}
	if err != nil {
		return Member{}, err
	}

	member, err := s.repo.Create(ctx, Member{
		SchoolID: schoolID,
		UserID:   user.ID,
		Role:     role,
	})
	if err != nil {
		return Member{}, err
	}
	member.FirstName = user.FirstName
	member.LastName = user.LastName
	member.Email = user.Email

	if provisioned && s.invites != nil {
		// A failed enqueue must not roll back the enrollment.
		_ = s.invites.SendInvite(ctx, user.Email, user.FirstName)
	}
	return member, nil
}

// Delete removes a user from the school roster.
func (s *Service) Delete(ctx context.Context, schoolID, userID int64) error {
	rc := shared.RequestContextFrom(ctx)
	if !rc.IsGlobalAdmin() {
		actor, ok := rc.MemberActor()
		if !ok {
			return httpx.ErrForbidden
		}
		allowed, err := s.policy.Can(ctx, actor, acl.ActionDelete, nil)
		if err != nil {
			return err
		}
		if !allowed {
			return httpx.ErrForbidden
		}
	}
	return s.repo.Delete(ctx, schoolID, userID)
}

// ResolveMembership returns the membership claims used by the
// authentication middleware to build the request context. No
// authorization check: resolving who the caller is precedes deciding
// what they may do.
func (s *Service) ResolveMembership(ctx context.Context, schoolID, userID int64) (shared.MemberClaims, error) {
	member, err := s.repo.FindByUser(ctx, schoolID, userID)
	if err != nil {
		return shared.MemberClaims{}, err
	}
	return shared.MemberClaims{
		ID:       member.ID,
		SchoolID: member.SchoolID,
		UserID:   member.UserID,
		Role:     member.Role,
	}, nil
}
