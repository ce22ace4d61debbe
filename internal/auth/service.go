package auth

import (
	"context"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/users"
)

// RegisterInput carries the self-service signup fields. Accounts always
// start with the platform USER role; school roles come from memberships.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	TaxID     string
	Password  string
}

// Service implements login, signup and token refresh.
type Service struct {
	users  *users.Service
	tokens *TokenService
}

// NewService constructs a Service.
func NewService(userSvc *users.Service, tokens *TokenService) *Service {
	return &Service{users: userSvc, tokens: tokens}
}

// Login validates credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.ValidateCredentials(ctx, email, password)
	if err != nil {
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(user.ID, user.Email, user.Role)
}

// Register provisions a platform account.
func (s *Service) Register(ctx context.Context, input RegisterInput) (users.User, error) {
	return s.users.Provision(ctx, users.CreateInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		TaxID:     input.TaxID,
		Password:  input.Password,
		Role:      acl.RoleUser,
	})
}

// Refresh trades a valid refresh token for a fresh pair. The user is
// re-read so role changes and disabled accounts take effect immediately.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return TokenPair{}, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(user.ID, user.Email, user.Role)
}
