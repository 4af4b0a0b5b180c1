package entity

import (
	"time"

	"github.com/ac-tresor/dossiers/internal/domain/workflow"
)

// User is an account of the institution
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	Role         workflow.Role `json:"role"`
	PasswordHash string        `json:"-"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
