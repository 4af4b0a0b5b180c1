package service

import (
	"context"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
)

// ReferentielService exposes the reference data used by the CB and the ordonnateur
type ReferentielService interface {
	ListTypesOperation(ctx context.Context) ([]*entity.TypeOperation, error)
	ListNatures(ctx context.Context, typeOperationID string) ([]*entity.NatureOperation, error)
	ListPieces(ctx context.Context, natureOperationID string) ([]*entity.PieceJustificative, error)
	VerificationChecklist(ctx context.Context) ([]*entity.VerificationCategory, error)
}

type referentielServiceImpl struct {
	repo port.ReferentielRepository
}

// NewReferentielService creates a new ReferentielService
func NewReferentielService(repo port.ReferentielRepository) ReferentielService {
	return &referentielServiceImpl{repo: repo}
}

func (s *referentielServiceImpl) ListTypesOperation(ctx context.Context) ([]*entity.TypeOperation, error) {
	types, err := s.repo.ListTypesOperation(ctx)
	return types, errs.Persistence("list types of operation", err)
}

// ListNatures returns the natures of one type; an unknown type is NotFound
func (s *referentielServiceImpl) ListNatures(ctx context.Context, typeOperationID string) ([]*entity.NatureOperation, error) {
	t, err := s.repo.GetTypeOperation(ctx, typeOperationID)
	if err != nil {
		return nil, errs.Persistence("load type of operation", err)
	}
	if t == nil {
		return nil, errs.NotFound("type of operation %s", typeOperationID)
	}

	natures, err := s.repo.ListNatures(ctx, t.ID)
	return natures, errs.Persistence("list natures", err)
}

// ListPieces returns the pieces justificatives of one nature in display order
func (s *referentielServiceImpl) ListPieces(ctx context.Context, natureOperationID string) ([]*entity.PieceJustificative, error) {
	n, err := s.repo.GetNature(ctx, natureOperationID)
	if err != nil {
		return nil, errs.Persistence("load nature", err)
	}
	if n == nil {
		return nil, errs.NotFound("nature of operation %s", natureOperationID)
	}

	pieces, err := s.repo.ListPieces(ctx, n.ID)
	return pieces, errs.Persistence("list pieces", err)
}

func (s *referentielServiceImpl) VerificationChecklist(ctx context.Context) ([]*entity.VerificationCategory, error) {
	categories, err := s.repo.ListVerificationCategories(ctx)
	return categories, errs.Persistence("list verification checklist", err)
}
