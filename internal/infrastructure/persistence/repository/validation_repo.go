package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ValidationRepository implements port.ValidationRepository
type ValidationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewValidationRepository creates a new validation repository
func NewValidationRepository(db *sql.DB, logger *zap.Logger) port.ValidationRepository {
	return &ValidationRepository{db: db, logger: logger}
}

// SaveOperationValidation replaces the dossier's validation and its piece selections.
// Callers run it inside a transaction so that a failure leaves no partial selection.
func (r *ValidationRepository) SaveOperationValidation(ctx context.Context, v *entity.OperationValidation) error {
	exec := sqlite.ExecutorFrom(ctx, r.db)
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}

	if _, err := exec.ExecContext(ctx, `
		DELETE FROM operation_validation_pieces
		WHERE validation_id IN (SELECT id FROM operation_validations WHERE dossier_id = ?)`, v.DossierID); err != nil {
		r.logger.Error("Failed to clear piece selections", zap.String("dossier_id", v.DossierID), zap.Error(err))
		return fmt.Errorf("failed to clear piece selections: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM operation_validations WHERE dossier_id = ?`, v.DossierID); err != nil {
		r.logger.Error("Failed to clear operation validation", zap.String("dossier_id", v.DossierID), zap.Error(err))
		return fmt.Errorf("failed to clear operation validation: %w", err)
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO operation_validations (
			id, dossier_id, type_operation_id, nature_operation_id, commentaire, validated_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.DossierID, v.TypeOperationID, v.NatureOperationID, v.Commentaire, v.ValidatedBy, v.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to save operation validation", zap.String("dossier_id", v.DossierID), zap.Error(err))
		return fmt.Errorf("failed to save operation validation: %w", err)
	}

	for _, p := range v.Pieces {
		_, err := exec.ExecContext(ctx, `
			INSERT INTO operation_validation_pieces (validation_id, piece_id, present, commentaire)
			VALUES (?, ?, ?, ?)`, v.ID, p.PieceID, p.Present, p.Commentaire)
		if err != nil {
			r.logger.Error("Failed to save piece selection",
				zap.String("dossier_id", v.DossierID),
				zap.String("piece_id", p.PieceID),
				zap.Error(err))
			return fmt.Errorf("failed to save piece selection: %w", err)
		}
	}

	return nil
}

// GetOperationValidation returns the dossier's validation with its pieces, or nil
func (r *ValidationRepository) GetOperationValidation(ctx context.Context, dossierID string) (*entity.OperationValidation, error) {
	exec := sqlite.ExecutorFrom(ctx, r.db)

	var v entity.OperationValidation
	err := exec.QueryRowContext(ctx, `
		SELECT id, dossier_id, type_operation_id, nature_operation_id, commentaire, validated_by, created_at
		FROM operation_validations WHERE dossier_id = ?`, dossierID).
		Scan(&v.ID, &v.DossierID, &v.TypeOperationID, &v.NatureOperationID, &v.Commentaire, &v.ValidatedBy, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get operation validation", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, fmt.Errorf("failed to get operation validation: %w", err)
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT piece_id, present, commentaire FROM operation_validation_pieces
		WHERE validation_id = ? ORDER BY piece_id`, v.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list piece selections: %w", err)
	}
	defer rows.Close()

	v.Pieces = []entity.PieceSelection{}
	for rows.Next() {
		var p entity.PieceSelection
		if err := rows.Scan(&p.PieceID, &p.Present, &p.Commentaire); err != nil {
			return nil, fmt.Errorf("failed to scan piece selection: %w", err)
		}
		v.Pieces = append(v.Pieces, p)
	}

	return &v, rows.Err()
}

// UpsertVerificationAnswer stores the latest answer to a checklist item
func (r *ValidationRepository) UpsertVerificationAnswer(ctx context.Context, a *entity.VerificationAnswer) error {
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now()
	}
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `
		INSERT INTO verification_answers (
			dossier_id, verification_id, valide, commentaire, piece_reference,
			answered_by, answered_role, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dossier_id, verification_id) DO UPDATE SET
			valide = excluded.valide,
			commentaire = excluded.commentaire,
			piece_reference = excluded.piece_reference,
			answered_by = excluded.answered_by,
			answered_role = excluded.answered_role,
			updated_at = excluded.updated_at`,
		a.DossierID, a.VerificationID, a.Valide, a.Commentaire, a.PieceJustificativeReference,
		a.AnsweredBy, a.AnsweredRole, a.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to save verification answer",
			zap.String("dossier_id", a.DossierID),
			zap.String("verification_id", a.VerificationID),
			zap.Error(err))
		return fmt.Errorf("failed to save verification answer: %w", err)
	}
	return nil
}

// ListVerificationAnswers returns every answer recorded for a dossier
func (r *ValidationRepository) ListVerificationAnswers(ctx context.Context, dossierID string) ([]entity.VerificationAnswer, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `
		SELECT dossier_id, verification_id, valide, commentaire, piece_reference,
			answered_by, answered_role, updated_at
		FROM verification_answers WHERE dossier_id = ? ORDER BY verification_id`, dossierID)
	if err != nil {
		r.logger.Error("Failed to list verification answers", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, fmt.Errorf("failed to list verification answers: %w", err)
	}
	defer rows.Close()

	var out []entity.VerificationAnswer
	for rows.Next() {
		var a entity.VerificationAnswer
		if err := rows.Scan(&a.DossierID, &a.VerificationID, &a.Valide, &a.Commentaire,
			&a.PieceJustificativeReference, &a.AnsweredBy, &a.AnsweredRole, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
