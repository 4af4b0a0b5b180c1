package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/google/uuid"
)

// ValidateOperationType records the type, nature and piece selection chosen by the
// CB. The whole selection is written in one transaction: a missing mandatory piece
// or an unknown reference leaves the previous selection untouched.
func (e *engineImpl) ValidateOperationType(ctx context.Context, p entity.Principal, dossierID string, in OperationTypeInput) (*entity.OperationValidation, error) {
	typeID := strings.TrimSpace(in.TypeOperationID)
	natureID := strings.TrimSpace(in.NatureOperationID)
	commentaire := strings.TrimSpace(in.Commentaire)

	var saved *entity.OperationValidation
	_, err := e.run(ctx, p, dossierID, step{
		trigger:   domainwf.TriggerValiderTypeOperation,
		action:    entity.ActionValidateOperationType,
		comment:   commentaire,
		eventType: event.TypeOperationTypeValidated,
		validate: func() error {
			if typeID == "" || natureID == "" {
				return errs.Validation("type_operation_id and nature_operation_id are required")
			}
			return nil
		},
		prepare: func(ctx context.Context, d *entity.Dossier, _ *guardInputs) error {
			v, err := e.buildOperationValidation(ctx, p, d.ID, typeID, natureID, commentaire, in.Pieces)
			if err != nil {
				return err
			}
			if err := e.Validations.SaveOperationValidation(ctx, v); err != nil {
				return errs.Persistence("save operation validation", err)
			}
			saved = v
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (e *engineImpl) buildOperationValidation(ctx context.Context, p entity.Principal, dossierID, typeID, natureID, commentaire string, selection map[string]PieceInput) (*entity.OperationValidation, error) {
	typeOp, err := e.Referentiel.GetTypeOperation(ctx, typeID)
	if err != nil {
		return nil, errs.Persistence("load type of operation", err)
	}
	if typeOp == nil {
		return nil, errs.NotFound("type of operation %s", typeID)
	}

	nature, err := e.Referentiel.GetNature(ctx, natureID)
	if err != nil {
		return nil, errs.Persistence("load nature of operation", err)
	}
	if nature == nil {
		return nil, errs.NotFound("nature of operation %s", natureID)
	}
	if nature.TypeOperationID != typeOp.ID {
		return nil, errs.Validation("nature %s does not belong to type %s", nature.Code, typeOp.Code)
	}

	pieces, err := e.Referentiel.ListPieces(ctx, nature.ID)
	if err != nil {
		return nil, errs.Persistence("list pieces justificatives", err)
	}

	known := make(map[string]bool, len(pieces))
	for _, piece := range pieces {
		known[piece.ID] = true
	}
	for id := range selection {
		if !known[id] {
			return nil, errs.NotFound("piece justificative %s for nature %s", id, nature.Code)
		}
	}

	v := &entity.OperationValidation{
		ID:                uuid.NewString(),
		DossierID:         dossierID,
		TypeOperationID:   typeOp.ID,
		NatureOperationID: nature.ID,
		Commentaire:       commentaire,
		ValidatedBy:       p.UserID,
		Pieces:            make([]entity.PieceSelection, 0, len(pieces)),
		CreatedAt:         e.now(),
	}

	var missing []string
	for _, piece := range pieces {
		in, ok := selection[piece.ID]
		if piece.Obligatoire && (!ok || !in.Present) {
			missing = append(missing, piece.Libelle)
		}
		if ok {
			v.Pieces = append(v.Pieces, entity.PieceSelection{
				PieceID:     piece.ID,
				Present:     in.Present,
				Commentaire: strings.TrimSpace(in.Commentaire),
			})
		}
	}
	if len(missing) > 0 {
		return nil, errs.Validation("mandatory pieces missing: %s", strings.Join(missing, ", "))
	}

	return v, nil
}

// SubmitVerifications records checklist answers. Partial submissions are accepted;
// completeness is enforced at definitive validation.
func (e *engineImpl) SubmitVerifications(ctx context.Context, p entity.Principal, dossierID string, in VerificationInput) (*entity.VerificationReport, error) {
	general := strings.TrimSpace(in.CommentaireGeneral)

	var report *entity.VerificationReport
	_, err := e.run(ctx, p, dossierID, step{
		trigger: domainwf.TriggerSoumettreVerifications,
		action:  entity.ActionSubmitVerifications,
		comment: general,
		validate: func() error {
			return validateAnswers(in.Validations)
		},
		prepare: func(ctx context.Context, d *entity.Dossier, _ *guardInputs) error {
			items, err := e.Referentiel.ListVerificationItems(ctx)
			if err != nil {
				return errs.Persistence("list verification items", err)
			}
			known := make(map[string]bool, len(items))
			for _, item := range items {
				known[item.ID] = true
			}

			now := e.now()
			for _, a := range in.Validations {
				id := strings.TrimSpace(a.VerificationID)
				if !known[id] {
					return errs.NotFound("verification item %s", id)
				}
				err := e.Validations.UpsertVerificationAnswer(ctx, &entity.VerificationAnswer{
					DossierID:                   d.ID,
					VerificationID:              id,
					Valide:                      *a.Valide,
					Commentaire:                 strings.TrimSpace(a.Commentaire),
					PieceJustificativeReference: strings.TrimSpace(a.PieceJustificativeReference),
					AnsweredBy:                  p.UserID,
					AnsweredRole:                p.Role.String(),
					UpdatedAt:                   now,
				})
				if err != nil {
					return errs.Persistence("save verification answer", err)
				}
			}

			report, err = e.buildReport(ctx, d.ID)
			return err
		},
		apply: func(d *entity.Dossier, _ time.Time) {
			if general != "" {
				d.CommentaireVerification = general
			}
		},
		eventType: event.TypeVerificationsSubmitted,
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func validateAnswers(answers []VerificationAnswerInput) error {
	if len(answers) == 0 {
		return errs.Validation("at least one verification answer is required")
	}

	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		id := strings.TrimSpace(a.VerificationID)
		switch {
		case id == "":
			return errs.Validation("verification_id is required")
		case seen[id]:
			return errs.Validation("verification %s answered twice", id)
		case a.Valide == nil:
			return errs.Validation("verification %s: valide is required", id)
		case !*a.Valide && strings.TrimSpace(a.Commentaire) == "":
			return errs.Validation("verification %s: a comment is required when not valid", id)
		}
		seen[id] = true
	}
	return nil
}

// VerificationReport builds the report for the agent comptable. It does not write.
func (e *engineImpl) VerificationReport(ctx context.Context, p entity.Principal, dossierID string) (*entity.VerificationReport, error) {
	if err := e.authorizeRole(p, domainwf.TriggerRapportVerification); err != nil {
		return nil, err
	}

	d, err := e.load(ctx, dossierID)
	if err != nil {
		return nil, err
	}

	s := step{trigger: domainwf.TriggerRapportVerification}
	if err := e.machineFor(d.Statut, &guardInputs{}).Authorize(p.Role, s.trigger); err != nil {
		return nil, e.machineError(err, d, s, nil)
	}

	return e.buildReport(ctx, d.ID)
}

func (e *engineImpl) buildReport(ctx context.Context, dossierID string) (*entity.VerificationReport, error) {
	items, err := e.Referentiel.ListVerificationItems(ctx)
	if err != nil {
		return nil, errs.Persistence("list verification items", err)
	}

	answers, err := e.Validations.ListVerificationAnswers(ctx, dossierID)
	if err != nil {
		return nil, errs.Persistence("list verification answers", err)
	}

	report := entity.BuildVerificationReport(dossierID, items, answers)

	report.OperationValidation, err = e.Validations.GetOperationValidation(ctx, dossierID)
	if err != nil {
		return nil, errs.Persistence("load operation validation", err)
	}

	return report, nil
}
