// Package subjects manages a school's subjects and the teachers assigned
// to them. The assignment table is what lecture policies consult to decide
// whether a teacher may touch a lecture.
package subjects

import (
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Subject is a course of study offered by a school.
type Subject struct {
	ID          int64      `json:"id"`
	SchoolID    int64      `json:"schoolId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// SubjectTeacher assigns a school member to teach a subject.
type SubjectTeacher struct {
	ID        int64     `json:"id"`
	SchoolID  int64     `json:"schoolId"`
	SubjectID int64     `json:"subjectId"`
	MemberID  int64     `json:"memberId"`
	UserID    int64     `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPolicy builds the subject policy: admins and faculty manage subjects,
// teachers may also update the ones they teach, students may browse.
func NewPolicy() *acl.Policy[Subject] {
	return acl.NewPolicy(
		acl.Grant[Subject](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Subject](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[Subject](acl.RoleTeacher, acl.ActionRead, acl.ActionList, acl.ActionUpdate),
		acl.Grant[Subject](acl.RoleStudent, acl.ActionRead, acl.ActionList),
	)
}

// NewTeacherPolicy builds the assignment policy: only admins and faculty
// change who teaches what, everyone in the school may look it up.
func NewTeacherPolicy() *acl.Policy[SubjectTeacher] {
	return acl.NewPolicy(
		acl.Grant[SubjectTeacher](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[SubjectTeacher](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[SubjectTeacher](acl.RoleTeacher, acl.ActionList, acl.ActionRead),
		acl.Grant[SubjectTeacher](acl.RoleStudent, acl.ActionList, acl.ActionRead),
	)
}
