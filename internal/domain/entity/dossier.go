package entity

import (
	"time"

	"github.com/ac-tresor/dossiers/internal/domain/workflow"
)

// Dossier is a dossier comptable under workflow control
type Dossier struct {
	ID             string         `json:"id"`
	NumeroDossier  string         `json:"numero_dossier"`
	NumeroNature   string         `json:"numero_nature"`
	NatureDocument string         `json:"nature_document"`
	PosteComptable string         `json:"poste_comptable"`
	ObjetOperation string         `json:"objet_operation"`
	Beneficiaire   string         `json:"beneficiaire"`
	DateDepot      time.Time      `json:"date_depot"`
	Statut         workflow.State `json:"statut"`

	RejectionReason  string     `json:"rejection_reason,omitempty"`
	RejectionDetails string     `json:"rejection_details,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`

	CommentaireCB          string `json:"commentaire_cb,omitempty"`
	CommentaireOrdonnateur string `json:"commentaire_ordonnateur,omitempty"`
	CommentaireDefinitif   string `json:"commentaire_definitif,omitempty"`
	CommentaireCloture     string `json:"commentaire_cloture,omitempty"`

	// CommentaireVerification is the general comment of the last checklist submission
	CommentaireVerification string `json:"commentaire_verification,omitempty"`

	ValidatedCBAt           *time.Time `json:"validated_cb_at,omitempty"`
	OrdonnancedAt           *time.Time `json:"ordonnanced_at,omitempty"`
	ValidatedDefinitivelyAt *time.Time `json:"validated_definitively_at,omitempty"`
	ClosedAt                *time.Time `json:"closed_at,omitempty"`

	SecretaireID string    `json:"secretaire_id"`
	FolderID     string    `json:"folder_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DossierFilter narrows dossier listings
type DossierFilter struct {
	Statut       workflow.State
	Statuts      []workflow.State
	SecretaireID string
	Search       string

	// TypeOperationID keeps dossiers whose validated type of operation matches
	TypeOperationID string

	Limit  int
	Offset int
}
