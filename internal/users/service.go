package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// CreateInput carries the fields needed to provision an account.
type CreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	TaxID     string
	Password  string
	Role      acl.Role
}

// UpdateInput carries the mutable account fields. Nil means unchanged.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Password  *string
}

// Service orchestrates account operations.
type Service struct {
	repo   Repository
	policy *acl.Policy[User]
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, policy: NewPolicy()}
}

// List returns accounts. Global admins only.
func (s *Service) List(ctx context.Context, params shared.PageParams) ([]User, int, error) {
	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.Actor()
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
	return s.repo.List(ctx, params)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.Actor()
	if !ok {
		return User{}, httpx.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	allowed, err := s.policy.Can(ctx, actor, acl.ActionRead, &user)
	if err != nil {
		return User{}, err
	}
	if !allowed {
		return User{}, httpx.ErrForbidden
	}
	return user, nil
}

// Update mutates an account. Users may only update themselves.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (User, error) {
	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.Actor()
	if !ok {
		return User{}, httpx.ErrForbidden
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	allowed, err := s.policy.Can(ctx, actor, acl.ActionUpdate, &user)
	if err != nil {
		return User{}, err
	}
	if !allowed {
		return User{}, httpx.ErrForbidden
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Password != nil {
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}
	return s.repo.Update(ctx, user)
}

// Delete soft-deletes an account. Global admins only.
func (s *Service) Delete(ctx context.Context, id int64) error {
	rc := shared.RequestContextFrom(ctx)
	actor, ok := rc.Actor()
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
	return s.repo.SoftDelete(ctx, id)
}

// Provision creates an account without an authorization check. Callers
// (registration, member invitation) decide whether the caller may create
// accounts; this only normalizes and persists.
func (s *Service) Provision(ctx context.Context, input CreateInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.FirstName == "" {
		return User{}, fmt.Errorf("%w: first name and email are required", httpx.ErrValidation)
	}
	role := input.Role
	if role == "" {
		role = acl.RoleUser
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		TaxID:        strings.TrimSpace(input.TaxID),
		PasswordHash: hash,
		Role:         role,
	})
}

// FindByEmail looks up an account by email for internal callers.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID looks up an account by id for internal callers.
func (s *Service) FindByID(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// ValidateCredentials checks email/password and rejects disabled
// accounts. Returns ErrUnauthorized on any mismatch so callers cannot
// distinguish a missing account from a wrong password.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return User{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return User{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if user.IsDisabled {
		return User{}, fmt.Errorf("%w: this user account has been disabled", httpx.ErrUnauthorized)
	}
	return user, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}
