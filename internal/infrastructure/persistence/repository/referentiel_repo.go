package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ReferentielRepository implements port.ReferentielRepository
type ReferentielRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReferentielRepository creates a new reference data repository
func NewReferentielRepository(db *sql.DB, logger *zap.Logger) port.ReferentielRepository {
	return &ReferentielRepository{db: db, logger: logger}
}

// ListTypesOperation returns every type of operation
func (r *ReferentielRepository) ListTypesOperation(ctx context.Context) ([]*entity.TypeOperation, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx,
		`SELECT id, code, libelle FROM types_operation ORDER BY code`)
	if err != nil {
		r.logger.Error("Failed to list types of operation", zap.Error(err))
		return nil, fmt.Errorf("failed to list types of operation: %w", err)
	}
	defer rows.Close()

	var out []*entity.TypeOperation
	for rows.Next() {
		var t entity.TypeOperation
		if err := rows.Scan(&t.ID, &t.Code, &t.Libelle); err != nil {
			return nil, fmt.Errorf("failed to scan type of operation: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// GetTypeOperation returns a type of operation, or nil if absent
func (r *ReferentielRepository) GetTypeOperation(ctx context.Context, id string) (*entity.TypeOperation, error) {
	var t entity.TypeOperation
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, code, libelle FROM types_operation WHERE id = ?`, id).Scan(&t.ID, &t.Code, &t.Libelle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get type of operation", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get type of operation: %w", err)
	}
	return &t, nil
}

// ListNatures returns the natures scoped to a type of operation
func (r *ReferentielRepository) ListNatures(ctx context.Context, typeOperationID string) ([]*entity.NatureOperation, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT id, type_operation_id, code, libelle FROM natures_operation
		WHERE type_operation_id = ? ORDER BY code`, typeOperationID)
	if err != nil {
		r.logger.Error("Failed to list natures", zap.String("type_operation_id", typeOperationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list natures: %w", err)
	}
	defer rows.Close()

	var out []*entity.NatureOperation
	for rows.Next() {
		var n entity.NatureOperation
		if err := rows.Scan(&n.ID, &n.TypeOperationID, &n.Code, &n.Libelle); err != nil {
			return nil, fmt.Errorf("failed to scan nature: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// GetNature returns a nature of operation, or nil if absent
func (r *ReferentielRepository) GetNature(ctx context.Context, id string) (*entity.NatureOperation, error) {
	var n entity.NatureOperation
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, type_operation_id, code, libelle FROM natures_operation WHERE id = ?`, id).
		Scan(&n.ID, &n.TypeOperationID, &n.Code, &n.Libelle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get nature", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get nature: %w", err)
	}
	return &n, nil
}

// ListPieces returns the pieces justificatives of a nature, in display order
func (r *ReferentielRepository) ListPieces(ctx context.Context, natureOperationID string) ([]*entity.PieceJustificative, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT id, nature_operation_id, libelle, obligatoire, ordre FROM pieces_justificatives
		WHERE nature_operation_id = ? ORDER BY ordre, id`, natureOperationID)
	if err != nil {
		r.logger.Error("Failed to list pieces", zap.String("nature_operation_id", natureOperationID), zap.Error(err))
		return nil, fmt.Errorf("failed to list pieces: %w", err)
	}
	defer rows.Close()

	var out []*entity.PieceJustificative
	for rows.Next() {
		var p entity.PieceJustificative
		if err := rows.Scan(&p.ID, &p.NatureOperationID, &p.Libelle, &p.Obligatoire, &p.Ordre); err != nil {
			return nil, fmt.Errorf("failed to scan piece: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// ListVerificationItems returns every checklist item ordered by category then item
func (r *ReferentielRepository) ListVerificationItems(ctx context.Context) ([]entity.VerificationItem, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT i.id, i.category_id, i.libelle, i.obligatoire, i.ordre
		FROM verification_items i
		JOIN verification_categories c ON c.id = i.category_id
		ORDER BY c.ordre, i.ordre, i.id`)
	if err != nil {
		r.logger.Error("Failed to list verification items", zap.Error(err))
		return nil, fmt.Errorf("failed to list verification items: %w", err)
	}
	defer rows.Close()

	var out []entity.VerificationItem
	for rows.Next() {
		var it entity.VerificationItem
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.Libelle, &it.Obligatoire, &it.Ordre); err != nil {
			return nil, fmt.Errorf("failed to scan verification item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListVerificationCategories returns the checklist hierarchy
func (r *ReferentielRepository) ListVerificationCategories(ctx context.Context) ([]*entity.VerificationCategory, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx,
		`SELECT id, libelle, ordre FROM verification_categories ORDER BY ordre, id`)
	if err != nil {
		r.logger.Error("Failed to list verification categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list verification categories: %w", err)
	}

	var cats []*entity.VerificationCategory
	byID := make(map[string]*entity.VerificationCategory)
	for rows.Next() {
		c := &entity.VerificationCategory{Items: []entity.VerificationItem{}}
		if err := rows.Scan(&c.ID, &c.Libelle, &c.Ordre); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan verification category: %w", err)
		}
		cats = append(cats, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	items, err := r.ListVerificationItems(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if c, ok := byID[it.CategoryID]; ok {
			c.Items = append(c.Items, it)
		}
	}

	return cats, nil
}
