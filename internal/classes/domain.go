// Package classes manages cohorts of students: the class itself and the
// enrollment rows linking members to it.
package classes

import (
	"context"
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Class is a cohort running between two dates.
type Class struct {
	ID        int64      `json:"id"`
	SchoolID  int64      `json:"schoolId"`
	Name      string     `json:"name"`
	StartAt   time.Time  `json:"startAt"`
	EndAt     time.Time  `json:"endAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// ClassStudent enrolls a school member in a class.
type ClassStudent struct {
	ID        int64      `json:"id"`
	SchoolID  int64      `json:"schoolId"`
	ClassID   int64      `json:"classId"`
	MemberID  int64      `json:"memberId"`
	UserID    int64      `json:"userId"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName,omitempty"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"-"`
}

// EnrollmentLookup reports whether a member is enrolled in a class.
type EnrollmentLookup func(ctx context.Context, classID, memberID int64) (bool, error)

// NewPolicy builds the class policy: admins and faculty manage classes,
// teachers may browse, students may read only classes they are enrolled in.
func NewPolicy(isEnrolled EnrollmentLookup) *acl.Policy[Class] {
	return acl.NewPolicy(
		acl.Grant[Class](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Class](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[Class](acl.RoleTeacher, acl.ActionRead, acl.ActionList),
		acl.GrantWhen(acl.RoleStudent, []acl.Action{acl.ActionRead},
			func(ctx context.Context, class *Class, actor acl.Actor) (bool, error) {
				return isEnrolled(ctx, class.ID, actor.ID)
			}),
	)
}

// NewStudentPolicy builds the enrollment policy: admins and faculty change
// the roster, teachers and students may look it up.
func NewStudentPolicy() *acl.Policy[ClassStudent] {
	return acl.NewPolicy(
		acl.Grant[ClassStudent](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[ClassStudent](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[ClassStudent](acl.RoleTeacher, acl.ActionList, acl.ActionRead),
		acl.Grant[ClassStudent](acl.RoleStudent, acl.ActionList, acl.ActionRead),
	)
}
