package harvest

// Role is the caller's role as asserted by the external identity provider.
type Role string

const (
	// RoleLearner is the default role for authenticated callers.
	RoleLearner Role = "learner"
	// RoleInstructor may trigger and inspect their own runs.
	RoleInstructor Role = "instructor"
	// RoleOrgAdmin may access any run regardless of ownership.
	RoleOrgAdmin Role = "org_admin"
)

// Identity is a verified caller identity. Harvest never verifies
// credentials itself; an external provider authenticates the bearer
// credential and hands over the (subject, role) pair.
type Identity struct {
	// Subject is the opaque caller identifier.
	Subject string `json:"subject"`
	// Role is the caller's verified role.
	Role Role `json:"role"`
}

// IsAdmin reports whether the identity carries the org_admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleOrgAdmin }
