// Package comments manages the discussion thread attached to a lecture.
package comments

import (
	"context"
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// Comment is one post in a lecture's thread. ParentID links replies.
type Comment struct {
	ID        int64      `json:"id"`
	SchoolID  int64      `json:"schoolId"`
	LectureID int64      `json:"lectureId"`
	ParentID  *int64     `json:"parentId,omitempty"`
	AuthorID  int64      `json:"authorId"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName,omitempty"`
	Title     string     `json:"title"`
	Post      string     `json:"post"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"-"`
}

// NewPolicy builds the comment policy: school admins moderate everything,
// everyone else posts and reads but only edits or removes their own.
func NewPolicy() *acl.Policy[Comment] {
	isAuthor := func(ctx context.Context, comment *Comment, actor acl.Actor) (bool, error) {
		return comment.AuthorID == actor.ID, nil
	}
	write := []acl.Action{acl.ActionUpdate, acl.ActionDelete}
	return acl.NewPolicy(
		acl.Grant[Comment](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[Comment](acl.RoleFaculty, acl.ActionCreate, acl.ActionList, acl.ActionRead),
		acl.GrantWhen(acl.RoleFaculty, write, isAuthor),
		acl.Grant[Comment](acl.RoleTeacher, acl.ActionCreate, acl.ActionList, acl.ActionRead),
		acl.GrantWhen(acl.RoleTeacher, write, isAuthor),
		acl.Grant[Comment](acl.RoleStudent, acl.ActionCreate, acl.ActionList, acl.ActionRead),
		acl.GrantWhen(acl.RoleStudent, write, isAuthor),
	)
}
