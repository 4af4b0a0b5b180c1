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

// QuitusRepository implements port.QuitusRepository
type QuitusRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuitusRepository creates a new quitus repository
func NewQuitusRepository(db *sql.DB, logger *zap.Logger) port.QuitusRepository {
	return &QuitusRepository{db: db, logger: logger}
}

// Create inserts a quitus; dossier_id is unique
func (r *QuitusRepository) Create(ctx context.Context, q *entity.Quitus) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO quitus (id, dossier_id, numero_quitus, file_path, file_name, generated_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		q.ID, q.DossierID, q.NumeroQuitus, q.FilePath, q.FileName, q.GeneratedBy, q.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create quitus", zap.String("dossier_id", q.DossierID), zap.Error(err))
		return fmt.Errorf("failed to create quitus: %w", err)
	}
	return nil
}

// GetByDossierID retrieves the quitus of a dossier, or nil if none was generated
func (r *QuitusRepository) GetByDossierID(ctx context.Context, dossierID string) (*entity.Quitus, error) {
	var q entity.Quitus
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, dossier_id, numero_quitus, file_path, file_name, generated_by, created_at
		FROM quitus WHERE dossier_id = ?`, dossierID).
		Scan(&q.ID, &q.DossierID, &q.NumeroQuitus, &q.FilePath, &q.FileName, &q.GeneratedBy, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quitus", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, fmt.Errorf("failed to get quitus: %w", err)
	}
	return &q, nil
}
