// Package acl implements the actor-based access control engine shared by
// every school resource. A policy is an immutable table of rules built once
// at startup; evaluation answers "may this actor perform this action on
// this resource" and nothing else. Denial is a false result, never an error.
package acl

// Action is a closed set of operations a rule can grant.
type Action string

const (
	ActionCreate Action = "Create"
	ActionRead   Action = "Read"
	ActionUpdate Action = "Update"
	ActionDelete Action = "Delete"
	ActionList   Action = "List"
	// ActionManage grants every other action.
	ActionManage Action = "Manage"
)

// Role names a principal's role. Global principals carry ADMIN or USER;
// school members carry ADMIN, FACULTY, TEACHER or STUDENT scoped to one
// school. The two ADMIN constants share a value on purpose: a school admin
// is an admin only inside that school, a global admin everywhere.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleUser    Role = "USER"
	RoleFaculty Role = "FACULTY"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// Actor is the authenticated principal attempting an action. For global
// policies ID is the user id; for school-scoped policies it is the school
// member id with the membership role. Immutable for the request.
type Actor struct {
	ID   int64
	Role Role
}
