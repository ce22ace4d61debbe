package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/akademos/akademos/internal/members"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
)

// Middleware authenticates requests and resolves school scope.
type Middleware struct {
	tokens   *TokenService
	members  *members.Service
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewMiddleware constructs the auth middleware. A nil cache disables
// membership caching.
func NewMiddleware(tokens *TokenService, memberSvc *members.Service, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Middleware {
	return &Middleware{tokens: tokens, members: memberSvc, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Authenticate verifies the bearer token and installs the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			httpx.RespondError(w, fmt.Errorf("%w: missing bearer token", httpx.ErrUnauthorized))
			return
		}
		claims, err := m.tokens.ParseAccess(token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized))
			return
		}

		rc := &shared.RequestContext{
			RequestID: chimw.GetReqID(r.Context()),
			URL:       r.URL.Path,
			ClientIP:  r.RemoteAddr,
			User: &shared.UserClaims{
				ID:    userID,
				Email: claims.Email,
				Role:  claims.Role,
			},
		}
		next.ServeHTTP(w, r.WithContext(shared.WithRequestContext(r.Context(), rc)))
	})
}

// SchoolScope validates the {schoolID} path segment and resolves the
// caller's membership in that school. A missing membership is not fatal:
// global admins operate on schools they do not belong to, and every
// school-scoped policy denies non-members on its own.
func (m *Middleware) SchoolScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		schoolID, err := httpx.PathID(r, "schoolID")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		rc := shared.RequestContextFrom(r.Context())
		if rc == nil || rc.User == nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		rc.SchoolID = &schoolID

		member, err := m.resolveMembership(r.Context(), schoolID, rc.User.ID)
		switch {
		case err == nil:
			rc.User.Member = &member
		case errors.Is(err, httpx.ErrNotFound):
		default:
			m.logger.Error("membership resolution failed",
				"school_id", schoolID, "user_id", rc.User.ID, "error", err)
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func membershipKey(schoolID, userID int64) string {
	return fmt.Sprintf("membership:%d:%d", schoolID, userID)
}

func (m *Middleware) resolveMembership(ctx context.Context, schoolID, userID int64) (shared.MemberClaims, error) {
	if m.cache != nil {
		raw, err := m.cache.Get(ctx, membershipKey(schoolID, userID)).Bytes()
		if err == nil {
			var claims shared.MemberClaims
			if err := json.Unmarshal(raw, &claims); err == nil {
				return claims, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			m.logger.Warn("membership cache read failed", "error", err)
		}
	}

	claims, err := m.members.ResolveMembership(ctx, schoolID, userID)
	if err != nil {
		return shared.MemberClaims{}, err
	}

	if m.cache != nil {
		if raw, err := json.Marshal(claims); err == nil {
			if err := m.cache.Set(ctx, membershipKey(schoolID, userID), raw, m.cacheTTL).Err(); err != nil {
				m.logger.Warn("membership cache write failed", "error", err)
			}
		}
	}
	return claims, nil
}
