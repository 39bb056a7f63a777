package core

import "strings"

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

// Actor is the pre-authenticated principal on whose behalf a core operation
// runs. Callers (API layer, CLI) resolve it from their own auth mechanism
// and pass it explicitly; the core never consults ambient session state.
type Actor struct {
	ID    string
	Name  string
	Roles []string
}

func (a Actor) RoleStartsWith(prefix string) bool {
	for _, role := range a.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.RoleStartsWith(RoleAdmin)
}

func (a Actor) IsTeacher() bool {
	return a.RoleStartsWith(RoleTeacher)
}

func (a Actor) IsStudent() bool {
	return a.RoleStartsWith(RoleStudent)
}
