package workflow

import (
	"context"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
)

// DossierEngine owns the statut of dossiers and applies every transition with its side effects
type DossierEngine interface {
	// ValidateCB moves EN_ATTENTE to VALIDÉ_CB
	ValidateCB(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error)

	// RejectCB moves EN_ATTENTE to REJETÉ_CB; the reason is mandatory
	RejectCB(ctx context.Context, p entity.Principal, dossierID string, in RejectInput) (*entity.Dossier, error)

	// ValidateOperationType records the CB's type, nature and piece selection atomically
	ValidateOperationType(ctx context.Context, p entity.Principal, dossierID string, in OperationTypeInput) (*entity.OperationValidation, error)

	// SubmitVerifications records ordonnateur checklist answers
	SubmitVerifications(ctx context.Context, p entity.Principal, dossierID string, in VerificationInput) (*entity.VerificationReport, error)

	// Ordonnance moves VALIDÉ_CB to VALIDÉ_ORDONNATEUR
	Ordonnance(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error)

	// VerificationReport aggregates the checklist for the agent comptable
	VerificationReport(ctx context.Context, p entity.Principal, dossierID string) (*entity.VerificationReport, error)

	// ValidateDefinitively moves VALIDÉ_ORDONNATEUR to VALIDÉ_DÉFINITIVEMENT when the report is consistent
	ValidateDefinitively(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error)

	// GenerateQuitus creates the quitus once; later calls return the same record
	GenerateQuitus(ctx context.Context, p entity.Principal, dossierID string) (*QuitusResult, error)

	// Close moves VALIDÉ_DÉFINITIVEMENT to TERMINÉ
	Close(ctx context.Context, p entity.Principal, dossierID, comment string) (*entity.Dossier, error)

	// PermittedActions lists what the caller may do on the dossier right now
	PermittedActions(ctx context.Context, p entity.Principal, dossierID string) ([]domainwf.Trigger, error)
}

// RejectInput is the CB rejection form
type RejectInput struct {
	Reason  string
	Details string
}

// PieceInput marks one piece justificative
type PieceInput struct {
	Present     bool
	Commentaire string
}

// OperationTypeInput is the type-of-operation validation form
type OperationTypeInput struct {
	TypeOperationID   string
	NatureOperationID string
	Pieces            map[string]PieceInput
	Commentaire       string
}

// VerificationAnswerInput answers one checklist item. Valide is required.
type VerificationAnswerInput struct {
	VerificationID              string
	Valide                      *bool
	Commentaire                 string
	PieceJustificativeReference string
}

// VerificationInput is a checklist submission
type VerificationInput struct {
	Validations        []VerificationAnswerInput
	CommentaireGeneral string
}

// QuitusResult tells whether the quitus was created by this call
type QuitusResult struct {
	Quitus  *entity.Quitus
	Created bool
}

// TransitionRecorder observes transition outcomes
type TransitionRecorder interface {
	ObserveTransition(trigger, outcome string)
}
