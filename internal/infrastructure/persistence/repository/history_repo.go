package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history record
func (r *HistoryRepository) Create(ctx context.Context, h *entity.DossierHistory) error {
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}

	query := `
		INSERT INTO dossier_history (
			dossier_id, actor_id, actor_role, previous_status, new_status,
			action_type, comment, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		h.DossierID,
		h.ActorID,
		h.ActorRole,
		h.PreviousStatus,
		h.NewStatus,
		h.ActionType,
		h.Comment,
		h.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.String("dossier_id", h.DossierID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	h.ID = id
	return nil
}

// ListByDossier returns the audit trail of a dossier in chronological order
func (r *HistoryRepository) ListByDossier(ctx context.Context, dossierID string) ([]*entity.DossierHistory, error) {
	query := `
		SELECT id, dossier_id, actor_id, actor_role, previous_status, new_status,
			action_type, comment, timestamp
		FROM dossier_history
		WHERE dossier_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, dossierID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []*entity.DossierHistory
	for rows.Next() {
		var h entity.DossierHistory
		if err := rows.Scan(
			&h.ID, &h.DossierID, &h.ActorID, &h.ActorRole, &h.PreviousStatus, &h.NewStatus,
			&h.ActionType, &h.Comment, &h.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		out = append(out, &h)
	}

	return out, rows.Err()
}
