package workflow

// Role is the function a user holds in the approval chain
type Role string

const (
	RoleSecretaire           Role = "SECRETAIRE"
	RoleControleurBudgetaire Role = "CONTROLEUR_BUDGETAIRE"
	RoleOrdonnateur          Role = "ORDONNATEUR"
	RoleAgentComptable       Role = "AGENT_COMPTABLE"
)

var validRoles = map[Role]bool{
	RoleSecretaire:           true,
	RoleControleurBudgetaire: true,
	RoleOrdonnateur:          true,
	RoleAgentComptable:       true,
}

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored value into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
