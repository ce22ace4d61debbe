// Package users manages platform accounts. Accounts carry a global role
// (ADMIN or USER); everything school-specific lives on the membership,
// not here.
package users

import (
	"context"
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// User is a platform account.
type User struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName,omitempty"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	TaxID        string     `json:"taxId,omitempty"`
	PasswordHash string     `json:"-"`
	Role         acl.Role   `json:"role"`
	IsDisabled   bool       `json:"isDisabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// NewPolicy builds the account policy: admins manage everything, a user
// may read any account but update only their own.
func NewPolicy() *acl.Policy[User] {
	return acl.NewPolicy(
		acl.Grant[User](acl.RoleAdmin, acl.ActionManage),
		acl.Grant[User](acl.RoleUser, acl.ActionRead),
		acl.GrantWhen(acl.RoleUser, []acl.Action{acl.ActionUpdate}, isSelf),
	)
}

func isSelf(_ context.Context, u *User, actor acl.Actor) (bool, error) {
	return u.ID == actor.ID, nil
}
