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

// FolderRepository implements port.FolderRepository
type FolderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db *sql.DB, logger *zap.Logger) port.FolderRepository {
	return &FolderRepository{db: db, logger: logger}
}

// Create inserts a folder
func (r *FolderRepository) Create(ctx context.Context, f *entity.Folder) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO folders (id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.Name, f.OwnerID, f.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create folder", zap.String("name", f.Name), zap.Error(err))
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// GetByID retrieves a folder, or nil if absent
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*entity.Folder, error) {
	var f entity.Folder
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM folders WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get folder", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return &f, nil
}

// AddDocument attaches a document record to its folder
func (r *FolderRepository) AddDocument(ctx context.Context, doc *entity.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO documents (id, folder_id, file_name, content_type, size, storage_path, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		doc.ID, doc.FolderID, doc.FileName, doc.ContentType, doc.Size, doc.StoragePath, doc.UploadedBy, doc.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to add document", zap.String("folder_id", doc.FolderID), zap.Error(err))
		return fmt.Errorf("failed to add document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document, or nil if absent
func (r *FolderRepository) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	query := `
		SELECT id, folder_id, file_name, content_type, size, storage_path, uploaded_by, created_at
		FROM documents WHERE id = ?
	`
	doc, err := scanDocument(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get document", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns the documents of a folder in upload order
func (r *FolderRepository) ListDocuments(ctx context.Context, folderID string) ([]*entity.Document, error) {
	query := `
		SELECT id, folder_id, file_name, content_type, size, storage_path, uploaded_by, created_at
		FROM documents WHERE folder_id = ? ORDER BY created_at ASC
	`
	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, folderID)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.String("folder_id", folderID), zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document record
func (r *FolderRepository) DeleteDocument(ctx context.Context, id string) error {
	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	if err := row.Scan(&doc.ID, &doc.FolderID, &doc.FileName, &doc.ContentType, &doc.Size,
		&doc.StoragePath, &doc.UploadedBy, &doc.CreatedAt); err != nil {
		return nil, err
	}
	return &doc, nil
}
