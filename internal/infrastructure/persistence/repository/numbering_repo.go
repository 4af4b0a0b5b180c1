package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NumberingRepository implements port.NumberingRepository on the numbering_counters table
type NumberingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNumberingRepository creates a new numbering repository
func NewNumberingRepository(db *sql.DB, logger *zap.Logger) port.NumberingRepository {
	return &NumberingRepository{db: db, logger: logger}
}

// Next increments and returns the counter for (code, year), starting at 1
func (r *NumberingRepository) Next(ctx context.Context, code string, year int) (int64, error) {
	var value int64
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO numbering_counters (code, year, value) VALUES (?, ?, 1)
		ON CONFLICT (code, year) DO UPDATE SET value = value + 1
		RETURNING value`, code, year).Scan(&value)
	if err != nil {
		r.logger.Error("Failed to advance counter", zap.String("code", code), zap.Int("year", year), zap.Error(err))
		return 0, fmt.Errorf("failed to advance counter: %w", err)
	}
	return value, nil
}
