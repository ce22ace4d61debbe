package shared

import (
	"context"

	"github.com/akademos/akademos/internal/acl"
)

// MemberClaims is the resolved school membership of the authenticated
// user, present only when the request targets a school the user belongs to.
type MemberClaims struct {
	ID       int64
	SchoolID int64
	UserID   int64
	Role     acl.Role
}

// UserClaims is the authenticated principal as carried by the access
// token, plus the membership resolved for the request's school scope.
type UserClaims struct {
	ID     int64
	Email  string
	Role   acl.Role
	Member *MemberClaims
}

// RequestContext describes one inbound request: correlation id, caller
// address, the school establishing tenancy (nil outside school scope) and
// the authenticated user (nil on anonymous endpoints).
type RequestContext struct {
	RequestID string
	URL       string
	ClientIP  string
	SchoolID  *int64
	User      *UserClaims
}

// IsGlobalAdmin reports whether the caller holds the global ADMIN role.
// Global admins bypass school-scoped policies entirely.
func (rc *RequestContext) IsGlobalAdmin() bool {
	return rc != nil && rc.User != nil && rc.User.Role == acl.RoleAdmin
}

// Actor returns the global-role actor for policies keyed on user roles.
func (rc *RequestContext) Actor() (acl.Actor, bool) {
	if rc == nil || rc.User == nil {
		return acl.Actor{}, false
	}
	return acl.Actor{ID: rc.User.ID, Role: rc.User.Role}, true
}

// MemberActor returns the school-membership actor for school-scoped
// policies. False when the caller is not a member of the request's school.
func (rc *RequestContext) MemberActor() (acl.Actor, bool) {
	if rc == nil || rc.User == nil || rc.User.Member == nil {
		return acl.Actor{}, false
	}
	return acl.Actor{ID: rc.User.Member.ID, Role: rc.User.Member.Role}, true
}

type requestContextKey struct{}

// WithRequestContext stores the request context in ctx.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestContextFrom extracts the request context from ctx. Returns nil
// outside of a request.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc
}
