// Package classrooms manages the physical rooms of a school, optionally
// geo-fenced for presence checks.
package classrooms

import (
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Classroom is a physical room belonging to one school. Location is an
// optional lat/lng pair with a radius in meters.
type Classroom struct {
	ID             int64      `json:"id"`
	SchoolID       int64      `json:"schoolId"`
	Name           string     `json:"name"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	LocationRadius *int       `json:"locationRadius,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"-"`
}

// NewPolicy builds the classroom policy: admins and faculty manage rooms,
// teachers and students may look them up.
func NewPolicy() *acl.Policy[Classroom] {
	return acl.NewPolicy(
		acl.Grant[Classroom](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Classroom](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[Classroom](acl.RoleTeacher, acl.ActionList, acl.ActionRead),
		acl.Grant[Classroom](acl.RoleStudent, acl.ActionList, acl.ActionRead),
	)
}
