package workflow

import (
	"context"
	"errors"
	"path"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/google/uuid"
)

const quitusDir = "quitus"

var errQuitusNotConfigured = errors.New("quitus renderer or storage not configured")

// GenerateQuitus issues the quitus of a definitively validated dossier. The first
// call renders and stores the document; later calls return the stored record.
func (e *engineImpl) GenerateQuitus(ctx context.Context, p entity.Principal, dossierID string) (*QuitusResult, error) {
	trigger := domainwf.TriggerGenererQuitus
	if err := e.authorizeRole(p, trigger); err != nil {
		e.observe(trigger, err)
		return nil, err
	}

	var (
		result  *QuitusResult
		dossier *entity.Dossier
	)

	err := e.TxManager.WithTransaction(ctx, func(txCtx context.Context) error {
		d, err := e.load(txCtx, dossierID)
		if err != nil {
			return err
		}

		s := step{trigger: trigger}
		machine := e.machineFor(d.Statut, &guardInputs{})
		if err := machine.Authorize(p.Role, trigger); err != nil {
			return e.machineError(err, d, s, nil)
		}

		existing, err := e.Quitus.GetByDossierID(txCtx, d.ID)
		if err != nil {
			return errs.Persistence("load quitus", err)
		}
		if existing != nil {
			result = &QuitusResult{Quitus: existing}
			return nil
		}

		q, err := e.issueQuitus(txCtx, p, d)
		if err != nil {
			return err
		}

		from := d.Statut
		if err := machine.Fire(txCtx, p.Role, trigger); err != nil {
			return e.machineError(err, d, s, nil)
		}
		if err := e.write(txCtx, d, from); err != nil {
			return err
		}
		if err := e.appendHistory(txCtx, p, d.ID, from, machine.State(), entity.ActionGenerateQuitus, q.NumeroQuitus, q.CreatedAt); err != nil {
			return err
		}

		result = &QuitusResult{Quitus: q, Created: true}
		dossier = d
		return nil
	})

	e.observe(trigger, err)
	if err != nil {
		return nil, err
	}

	if result.Created {
		e.emit(ctx, e.newEvent(event.TypeQuitusGenerated, dossier, p).
			WithTransition(dossier.Statut.String(), dossier.Statut.String()).
			WithComment(result.Quitus.NumeroQuitus))
	}

	return result, nil
}

func (e *engineImpl) issueQuitus(ctx context.Context, p entity.Principal, d *entity.Dossier) (*entity.Quitus, error) {
	if e.Renderer == nil || e.Storage == nil {
		return nil, errs.Persistence("generate quitus", errQuitusNotConfigured)
	}

	now := e.now()
	agent := p.FullName
	if e.Users != nil {
		if u, err := e.Users.GetByID(ctx, p.UserID); err == nil && u != nil {
			agent = u.FullName
		}
	}

	data := port.QuitusData{
		NumeroQuitus:   "Q-" + d.NumeroDossier,
		NumeroDossier:  d.NumeroDossier,
		Beneficiaire:   d.Beneficiaire,
		ObjetOperation: d.ObjetOperation,
		PosteComptable: d.PosteComptable,
		NatureDocument: d.NatureDocument,
		DateDepot:      d.DateDepot,
		AgentComptable: agent,
		IssuedAt:       now,
	}
	if d.ValidatedDefinitivelyAt != nil {
		data.ValidatedAt = *d.ValidatedDefinitivelyAt
	}

	content, err := e.Renderer.Render(ctx, data)
	if err != nil {
		return nil, errs.Persistence("render quitus", err)
	}

	fileName := data.NumeroQuitus + e.Renderer.Extension()
	filePath := path.Join(quitusDir, d.ID+e.Renderer.Extension())
	if err := e.Storage.Save(ctx, filePath, content); err != nil {
		return nil, errs.Persistence("store quitus", err)
	}

	q := &entity.Quitus{
		ID:           uuid.NewString(),
		DossierID:    d.ID,
		NumeroQuitus: data.NumeroQuitus,
		FilePath:     filePath,
		FileName:     fileName,
		GeneratedBy:  p.UserID,
		CreatedAt:    now,
	}
	if err := e.Quitus.Create(ctx, q); err != nil {
		return nil, errs.Persistence("create quitus", err)
	}

	return q, nil
}
