// Package members manages school memberships: the link between a platform
// account and one school, carrying the tenant-scoped role every policy
// decision keys on.
package members

import (
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Member ties a user to a school with a school-scoped role.
type Member struct {
	ID        int64      `json:"id"`
	SchoolID  int64      `json:"schoolId"`
	UserID    int64      `json:"userId"`
	Role      acl.Role   `json:"role"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName,omitempty"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// NewPolicy builds the membership policy: school admins and faculty
// manage the roster, teachers and students may read it.
func NewPolicy() *acl.Policy[Member] {
	return acl.NewPolicy(
		acl.Grant[Member](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Member](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[Member](acl.RoleTeacher, acl.ActionRead, acl.ActionList),
		acl.Grant[Member](acl.RoleStudent, acl.ActionRead, acl.ActionList),
	)
}
