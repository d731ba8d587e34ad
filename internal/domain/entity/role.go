// Package entity contains the core business objects of the project.
package entity

// Role represents the type of role an account can have in the system.
type Role string

const (
	// RoleInstructor indicates a driving-instructor account.
	RoleInstructor Role = "instructor"
	// RoleLearner indicates a learner account.
	RoleLearner Role = "learner"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleInstructor, RoleLearner:
		return true
	default:
		return false
	}
}
