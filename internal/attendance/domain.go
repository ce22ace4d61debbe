// Package attendance tracks student presence at lectures through a
// check-in/check-out flow bound to the lecture's schedule.
package attendance

import (
	"context"
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Attendance is one student's presence record for one lecture. StartAt is
// set on check-in, EndAt on check-out. A record never reverses: once both
// stamps exist it is final.
type Attendance struct {
	ID        int64      `json:"id"`
	SchoolID  int64      `json:"schoolId"`
	LectureID int64      `json:"lectureId"`
	StudentID int64      `json:"studentId"`
	StartAt   *time.Time `json:"startAt,omitempty"`
	EndAt     *time.Time `json:"endAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// State is the position of a record in the check-in flow.
type State string

const (
	StateNoRecord   State = "NO_RECORD"
	StateCheckedIn  State = "CHECKED_IN"
	StateCheckedOut State = "CHECKED_OUT"
)

// StateOf reports where a record sits in the flow. A nil record means the
// student never checked in.
func StateOf(a *Attendance) State {
	switch {
	case a == nil || a.StartAt == nil:
		return StateNoRecord
	case a.EndAt == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// Check-in opens five minutes before the lecture starts and closes ten
// minutes after; check-out opens ten minutes before it ends and closes
// five minutes after. Both bounds are inclusive.
const (
	checkInEarly  = 5 * time.Minute
	checkInLate   = 10 * time.Minute
	checkOutEarly = 10 * time.Minute
	checkOutLate  = 5 * time.Minute
)

// WithinCheckInWindow reports whether now falls inside the check-in
// window of a lecture starting at startAt.
func WithinCheckInWindow(now, startAt time.Time) bool {
	d := now.Sub(startAt)
	return d >= -checkInEarly && d <= checkInLate
}

// WithinCheckOutWindow reports whether now falls inside the check-out
// window of a lecture ending at endAt.
func WithinCheckOutWindow(now, endAt time.Time) bool {
	d := now.Sub(endAt)
	return d >= -checkOutEarly && d <= checkOutLate
}

// Clock supplies the current time. Production wires time.Now; tests pin it.
type Clock func() time.Time

// NewPolicy builds the attendance policy: admins and faculty manage all
// records, teachers read them, students touch only their own.
func NewPolicy() *acl.Policy[Attendance] {
	isOwn := func(ctx context.Context, a *Attendance, actor acl.Actor) (bool, error) {
		return a.StudentID == actor.ID, nil
	}
	return acl.NewPolicy(
		acl.Grant[Attendance](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Attendance](acl.RoleFaculty, acl.ActionManage),
		acl.Grant[Attendance](acl.RoleTeacher, acl.ActionRead, acl.ActionList),
		acl.GrantWhen(acl.RoleStudent, []acl.Action{acl.ActionRead, acl.ActionUpdate, acl.ActionCreate}, isOwn),
	)
}
