package shared

import "github.com/akademos/akademos/internal/acl"

var schoolRoleWeight = map[acl.Role]int{
	acl.RoleAdmin:   100,
	acl.RoleFaculty: 50,
	acl.RoleTeacher: 5,
	acl.RoleStudent: 1,
}

// IsSchoolRole reports whether role is a valid school membership role.
func IsSchoolRole(role acl.Role) bool {
	_, ok := schoolRoleWeight[role]
	return ok
}

// IsHigherOrEqualRole reports whether a ranks at or above b in the school
// role hierarchy. A member may only grant roles at or below their own.
func IsHigherOrEqualRole(a, b acl.Role) bool {
	return schoolRoleWeight[a] >= schoolRoleWeight[b]
}
