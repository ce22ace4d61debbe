// Package schools manages the tenant root entity. A school is the
// multi-tenancy boundary: every other school resource hangs off one and
// every membership role is scoped to one.
package schools

import (
	"time"

	"github.com/akademos/akademos/internal/acl"
)

// School is one tenant.
type School struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FantasyName string     `json:"fantasyName"`
	TaxID       string     `json:"taxId"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"-"`
}

// NewPolicy builds the school policy. Creating, updating and deleting
// tenants is platform administration: only the global ADMIN role is
// registered, so everyone else is denied before any predicate runs.
func NewPolicy() *acl.Policy[School] {
	return acl.NewPolicy(
		acl.Grant[School](acl.RoleAdmin, acl.ActionManage),
	)
}
