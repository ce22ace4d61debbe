package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/akademos/akademos/internal/acl"
	"github.com/akademos/akademos/internal/members"
	"github.com/akademos/akademos/internal/platform/httpx"
	"github.com/akademos/akademos/internal/shared"
	"github.com/akademos/akademos/internal/users"
)

type fakeMemberRepo struct {
	membership members.Member
	err        error
	lookups    int
}

func (r *fakeMemberRepo) List(ctx context.Context, schoolID int64, params shared.PageParams) ([]members.Member, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *fakeMemberRepo) FindByID(ctx context.Context, schoolID, id int64) (members.Member, error) {
	return members.Member{}, errors.New("not implemented")
}

func (r *fakeMemberRepo) FindByUser(ctx context.Context, schoolID, userID int64) (members.Member, error) {
	r.lookups++
	if r.err != nil {
		return members.Member{}, r.err
	}
	return r.membership, nil
}

func (r *fakeMemberRepo) Create(ctx context.Context, member members.Member) (members.Member, error) {
	return members.Member{}, errors.New("not implemented")
}

func (r *fakeMemberRepo) Delete(ctx context.Context, schoolID, userID int64) error {
	return errors.New("not implemented")
}

type fakeUserRepo struct{}

func (fakeUserRepo) List(ctx context.Context, params shared.PageParams) ([]users.User, int, error) {
	return nil, 0, errors.New("not implemented")
}
func (fakeUserRepo) FindByID(ctx context.Context, id int64) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}
func (fakeUserRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return users.User{}, httpx.ErrNotFound
}
func (fakeUserRepo) Create(ctx context.Context, user users.User) (users.User, error) {
	return user, nil
}
func (fakeUserRepo) Update(ctx context.Context, user users.User) (users.User, error) {
	return user, nil
}
func (fakeUserRepo) SoftDelete(ctx context.Context, id int64) error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func schoolScopedRequest(t *testing.T, rc *shared.RequestContext, schoolID string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/v1/schools/"+schoolID, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("schoolID", schoolID)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	if rc != nil {
		ctx = shared.WithRequestContext(ctx, rc)
	}
	return r.WithContext(ctx)
}

func TestSchoolScopeResolvesMembership(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := &fakeMemberRepo{membership: members.Member{
		ID: 9, SchoolID: 1, UserID: 42, Role: acl.RoleTeacher,
	}}
	memberSvc := members.NewService(repo, users.NewService(fakeUserRepo{}), nil)
	mw := NewMiddleware(NewTokenService("s", time.Hour, time.Hour), memberSvc, cache, time.Minute, testLogger())

	var seen *shared.RequestContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.RequestContextFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rc := &shared.RequestContext{User: &shared.UserClaims{ID: 42, Role: acl.RoleUser}}
	rec := httptest.NewRecorder()
	mw.SchoolScope(next).ServeHTTP(rec, schoolScopedRequest(t, rc, "1"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.NotNil(t, seen.SchoolID)
	require.Equal(t, int64(1), *seen.SchoolID)
	require.NotNil(t, seen.User.Member)
	require.Equal(t, acl.RoleTeacher, seen.User.Member.Role)
	require.Equal(t, int64(9), seen.User.Member.ID)

	// Second request is served from the cache, not the repository.
	rc2 := &shared.RequestContext{User: &shared.UserClaims{ID: 42, Role: acl.RoleUser}}
	rec2 := httptest.NewRecorder()
	mw.SchoolScope(next).ServeHTTP(rec2, schoolScopedRequest(t, rc2, "1"))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.Equal(t, 1, repo.lookups)
}

func TestSchoolScopeMissingMembershipIsNotFatal(t *testing.T) {
	repo := &fakeMemberRepo{err: httpx.ErrNotFound}
	memberSvc := members.NewService(repo, users.NewService(fakeUserRepo{}), nil)
	mw := NewMiddleware(NewTokenService("s", time.Hour, time.Hour), memberSvc, nil, time.Minute, testLogger())

	var seen *shared.RequestContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.RequestContextFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rc := &shared.RequestContext{User: &shared.UserClaims{ID: 42, Role: acl.RoleAdmin}}
	rec := httptest.NewRecorder()
	mw.SchoolScope(next).ServeHTTP(rec, schoolScopedRequest(t, rc, "1"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, seen.User.Member)
	require.True(t, seen.IsGlobalAdmin())
}

func TestSchoolScopeRejectsMalformedID(t *testing.T) {
	memberSvc := members.NewService(&fakeMemberRepo{}, users.NewService(fakeUserRepo{}), nil)
	mw := NewMiddleware(NewTokenService("s", time.Hour, time.Hour), memberSvc, nil, time.Minute, testLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})

	rc := &shared.RequestContext{User: &shared.UserClaims{ID: 42, Role: acl.RoleUser}}
	rec := httptest.NewRecorder()
	mw.SchoolScope(next).ServeHTTP(rec, schoolScopedRequest(t, rc, "abc"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	memberSvc := members.NewService(&fakeMemberRepo{}, users.NewService(fakeUserRepo{}), nil)
	mw := NewMiddleware(NewTokenService("s", time.Hour, time.Hour), memberSvc, nil, time.Minute, testLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})

	rec := httptest.NewRecorder()
	mw.Authenticate(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateInstallsRequestContext(t *testing.T) {
	tokens := NewTokenService("s", time.Hour, time.Hour)
	memberSvc := members.NewService(&fakeMemberRepo{}, users.NewService(fakeUserRepo{}), nil)
	mw := NewMiddleware(tokens, memberSvc, nil, time.Minute, testLogger())

	pair, err := tokens.IssuePair(42, "ana@example.com", acl.RoleUser)
	require.NoError(t, err)

	var seen *shared.RequestContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.RequestContextFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	mw.Authenticate(next).ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, int64(42), seen.User.ID)
	require.Equal(t, "ana@example.com", seen.User.Email)
}
