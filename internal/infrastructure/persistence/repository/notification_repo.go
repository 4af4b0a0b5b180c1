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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create persists a notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (
			id, user_id, kind, title, message, dossier_id, numero_dossier,
			rejection_reason, read, read_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		n.ID, n.UserID, string(n.Kind), n.Title, n.Message, n.DossierID, n.NumeroDossier,
		n.RejectionReason, n.Read, nullTime(n.ReadAt), n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("user_id", n.UserID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns a user's notifications, newest first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, user_id, kind, title, message, dossier_id, numero_dossier,
			rejection_reason, read, read_at, created_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	if limit <= 0 {
		limit = 50
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		var kind string
		var readAt sql.NullTime
		if err := rows.Scan(
			&n.ID, &n.UserID, &kind, &n.Title, &n.Message, &n.DossierID, &n.NumeroDossier,
			&n.RejectionReason, &n.Read, &readAt, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = entity.NotificationKind(kind)
		n.ReadAt = timePtr(readAt)
		out = append(out, &n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications of a user
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&n)
	if err != nil {
		r.logger.Error("Failed to count notifications", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification of the user as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET read = 1, read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?`,
		time.Now(), id, userID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// MarkAllRead marks every unread notification of the user as read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE notifications SET read = 1, read_at = ? WHERE user_id = ? AND read = 0`, time.Now(), userID)
	if err != nil {
		r.logger.Error("Failed to mark notifications read", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}

// DeleteReadBefore removes read notifications whose read_at is older than cutoff
func (r *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`DELETE FROM notifications WHERE read = 1 AND read_at < ?`, cutoff)
	if err != nil {
		r.logger.Error("Failed to purge notifications", zap.Time("cutoff", cutoff), zap.Error(err))
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return result.RowsAffected()
}
