package entity

import "github.com/ac-tresor/dossiers/internal/domain/workflow"

// Principal is the authenticated caller, resolved server side
type Principal struct {
	UserID   string
	FullName string
	Role     workflow.Role
}
