package port

import (
	"context"
	"time"
)

// QuitusData is everything printed on a quitus
type QuitusData struct {
	NumeroQuitus   string
	NumeroDossier  string
	Beneficiaire   string
	ObjetOperation string
	PosteComptable string
	NatureDocument string
	DateDepot      time.Time
	ValidatedAt    time.Time
	AgentComptable string
	IssuedAt       time.Time
}

// QuitusRenderer produces the quitus document
type QuitusRenderer interface {
	Render(ctx context.Context, data QuitusData) ([]byte, error)
	// Extension is the file extension of rendered documents, including the dot
	Extension() string
}

// PasswordHasher hashes and checks passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues and validates bearer tokens
type TokenIssuer interface {
	Issue(userID string, role string) (string, time.Time, error)
	// Validate returns the subject user id of a valid token
	Validate(token string) (string, error)
}
