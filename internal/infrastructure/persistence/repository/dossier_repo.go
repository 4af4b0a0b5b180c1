package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const dossierColumns = `
	id, numero_dossier, numero_nature, nature_document, poste_comptable,
	objet_operation, beneficiaire, date_depot, statut,
	rejection_reason, rejection_details, rejected_at,
	commentaire_cb, commentaire_ordonnateur, commentaire_definitif,
	commentaire_cloture, commentaire_verification,
	validated_cb_at, ordonnanced_at, validated_definitively_at, closed_at,
	secretaire_id, folder_id, created_at, updated_at`

// DossierRepository implements port.DossierRepository
type DossierRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDossierRepository creates a new dossier repository
func NewDossierRepository(db *sql.DB, logger *zap.Logger) port.DossierRepository {
	return &DossierRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new dossier
func (r *DossierRepository) Create(ctx context.Context, d *entity.Dossier) error {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	query := `INSERT INTO dossiers (` + dossierColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		d.ID, d.NumeroDossier, d.NumeroNature, d.NatureDocument, d.PosteComptable,
		d.ObjetOperation, d.Beneficiaire, d.DateDepot, d.Statut.String(),
		d.RejectionReason, d.RejectionDetails, nullTime(d.RejectedAt),
		d.CommentaireCB, d.CommentaireOrdonnateur, d.CommentaireDefinitif,
		d.CommentaireCloture, d.CommentaireVerification,
		nullTime(d.ValidatedCBAt), nullTime(d.OrdonnancedAt), nullTime(d.ValidatedDefinitivelyAt), nullTime(d.ClosedAt),
		d.SecretaireID, d.FolderID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create dossier", zap.String("numero_dossier", d.NumeroDossier), zap.Error(err))
		return fmt.Errorf("failed to create dossier: %w", err)
	}

	return nil
}

// GetByID retrieves a dossier by ID, or nil if it does not exist
func (r *DossierRepository) GetByID(ctx context.Context, id string) (*entity.Dossier, error) {
	query := `SELECT ` + dossierColumns + ` FROM dossiers WHERE id = ?`

	d, err := scanDossier(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get dossier by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get dossier: %w", err)
	}

	return d, nil
}

// GetByNumero retrieves a dossier by its human-readable number
func (r *DossierRepository) GetByNumero(ctx context.Context, numero string) (*entity.Dossier, error) {
	query := `SELECT ` + dossierColumns + ` FROM dossiers WHERE numero_dossier = ?`

	d, err := scanDossier(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, numero))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get dossier by numero", zap.String("numero_dossier", numero), zap.Error(err))
		return nil, fmt.Errorf("failed to get dossier: %w", err)
	}

	return d, nil
}

// List returns dossiers matching the filter, most recent first
func (r *DossierRepository) List(ctx context.Context, filter entity.DossierFilter) ([]*entity.Dossier, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Statut != "" {
		where = append(where, "statut = ?")
		args = append(args, filter.Statut.String())
	}
	if len(filter.Statuts) > 0 {
		placeholders := make([]string, len(filter.Statuts))
		for i, st := range filter.Statuts {
			placeholders[i] = "?"
			args = append(args, st.String())
		}
		where = append(where, "statut IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.TypeOperationID != "" {
		where = append(where, "id IN (SELECT dossier_id FROM operation_validations WHERE type_operation_id = ?)")
		args = append(args, filter.TypeOperationID)
	}
	if filter.SecretaireID != "" {
		where = append(where, "secretaire_id = ?")
		args = append(args, filter.SecretaireID)
	}
	if filter.Search != "" {
		where = append(where, "(numero_dossier LIKE ? OR beneficiaire LIKE ? OR objet_operation LIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}

	query := `SELECT ` + dossierColumns + ` FROM dossiers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date_depot DESC, created_at DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list dossiers", zap.Error(err))
		return nil, fmt.Errorf("failed to list dossiers: %w", err)
	}
	defer rows.Close()

	var dossiers []*entity.Dossier
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dossier: %w", err)
		}
		dossiers = append(dossiers, d)
	}

	return dossiers, rows.Err()
}

// CountByStatut returns the number of dossiers per state
func (r *DossierRepository) CountByStatut(ctx context.Context) (map[workflow.State]int, error) {
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, `SELECT statut, COUNT(*) FROM dossiers GROUP BY statut`)
	if err != nil {
		r.logger.Error("Failed to count dossiers", zap.Error(err))
		return nil, fmt.Errorf("failed to count dossiers: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.State]int)
	for rows.Next() {
		var statut string
		var n int
		if err := rows.Scan(&statut, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[workflow.State(statut)] = n
	}

	return counts, rows.Err()
}

// UpdateWorkflow writes the workflow fields of d if the stored statut equals expected
func (r *DossierRepository) UpdateWorkflow(ctx context.Context, d *entity.Dossier, expected workflow.State) (bool, error) {
	d.UpdatedAt = time.Now()

	query := `
		UPDATE dossiers SET
			statut = ?,
			rejection_reason = ?, rejection_details = ?, rejected_at = ?,
			commentaire_cb = ?, commentaire_ordonnateur = ?, commentaire_definitif = ?,
			commentaire_cloture = ?, commentaire_verification = ?,
			validated_cb_at = ?, ordonnanced_at = ?, validated_definitively_at = ?, closed_at = ?,
			updated_at = ?
		WHERE id = ? AND statut = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		d.Statut.String(),
		d.RejectionReason, d.RejectionDetails, nullTime(d.RejectedAt),
		d.CommentaireCB, d.CommentaireOrdonnateur, d.CommentaireDefinitif,
		d.CommentaireCloture, d.CommentaireVerification,
		nullTime(d.ValidatedCBAt), nullTime(d.OrdonnancedAt), nullTime(d.ValidatedDefinitivelyAt), nullTime(d.ClosedAt),
		d.UpdatedAt,
		d.ID, expected.String(),
	)
	if err != nil {
		r.logger.Error("Failed to update dossier workflow",
			zap.String("id", d.ID),
			zap.String("expected", expected.String()),
			zap.String("statut", d.Statut.String()),
			zap.Error(err))
		return false, fmt.Errorf("failed to update dossier: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDossier(row rowScanner) (*entity.Dossier, error) {
	var d entity.Dossier
	var statut string
	var rejectedAt, validatedCB, ordonnanced, validatedDef, closedAt sql.NullTime

	err := row.Scan(
		&d.ID, &d.NumeroDossier, &d.NumeroNature, &d.NatureDocument, &d.PosteComptable,
		&d.ObjetOperation, &d.Beneficiaire, &d.DateDepot, &statut,
		&d.RejectionReason, &d.RejectionDetails, &rejectedAt,
		&d.CommentaireCB, &d.CommentaireOrdonnateur, &d.CommentaireDefinitif,
		&d.CommentaireCloture, &d.CommentaireVerification,
		&validatedCB, &ordonnanced, &validatedDef, &closedAt,
		&d.SecretaireID, &d.FolderID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Statut = workflow.State(statut)
	d.RejectedAt = timePtr(rejectedAt)
	d.ValidatedCBAt = timePtr(validatedCB)
	d.OrdonnancedAt = timePtr(ordonnanced)
	d.ValidatedDefinitivelyAt = timePtr(validatedDef)
	d.ClosedAt = timePtr(closedAt)

	return &d, nil
}
