// Package auth issues and verifies access tokens and resolves the
// request context for everything behind the bearer wall.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/platform/httpx"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// Claims is the JWT payload. Access tokens carry email and role; refresh
// tokens carry only the subject.
type Claims struct {
	Email    string   `json:"email,omitempty"`
	Role     acl.Role `json:"role,omitempty"`
	TokenUse string   `json:"use"`
	jwt.RegisteredClaims
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs and parses HS256 tokens.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssuePair signs an access and a refresh token for the user.
func (t *TokenService) IssuePair(userID int64, email string, role acl.Role) (TokenPair, error) {
	access, err := t.sign(Claims{
		Email:    email,
		Role:     role,
		TokenUse: tokenUseAccess,
	}, userID, t.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign access token: %w", err)
	}
	refresh, err := t.sign(Claims{TokenUse: tokenUseRefresh}, userID, t.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenService) sign(claims Claims, userID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// ParseAccess verifies an access token and returns its claims.
func (t *TokenService) ParseAccess(token string) (*Claims, error) {
	return t.parse(token, tokenUseAccess)
}

// ParseRefresh verifies a refresh token and returns its claims.
func (t *TokenService) ParseRefresh(token string) (*Claims, error) {
	return t.parse(token, tokenUseRefresh)
}

func (t *TokenService) parse(token, use string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.TokenUse != use {
		return nil, fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized)
	}
	return claims, nil
}

// UserID returns the numeric subject of the token.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("auth: malformed token subject")
	}
	return id, nil
}
