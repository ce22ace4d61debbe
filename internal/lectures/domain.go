// Package lectures manages scheduled teaching sessions: a subject taught
// to a class, optionally in a classroom, between two instants.
package lectures

import (
	"context"
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Lecture is one scheduled session of a subject for a class.
type Lecture struct {
	ID          int64      `json:"id"`
	SchoolID    int64      `json:"schoolId"`
	SubjectID   int64      `json:"subjectId"`
	ClassID     int64      `json:"classId"`
	ClassroomID *int64     `json:"classroomId,omitempty"`
	Name        string     `json:"name"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       time.Time  `json:"endAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// TeacherLookup reports whether a member teaches a subject in a school.
// The subjects service provides the production implementation.
type TeacherLookup func(ctx context.Context, schoolID, subjectID, memberID int64) (bool, error)

// NewPolicy builds the lecture policy. Teachers may schedule lectures
// freely but only touch existing ones for subjects they teach.
func NewPolicy(teaches TeacherLookup) *acl.Policy[Lecture] {
	isLectureTeacher := func(ctx context.Context, lecture *Lecture, actor acl.Actor) (bool, error) {
		return teaches(ctx, lecture.SchoolID, lecture.SubjectID, actor.ID)
	}
	return acl.NewPolicy(
		acl.Grant[Lecture](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Lecture](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[Lecture](acl.RoleTeacher, acl.ActionCreate, acl.ActionList),
		acl.GrantWhen(acl.RoleTeacher, []acl.Action{acl.ActionRead, acl.ActionUpdate}, isLectureTeacher),
		acl.Grant[Lecture](acl.RoleStudent, acl.ActionRead, acl.ActionList),
	)
}
