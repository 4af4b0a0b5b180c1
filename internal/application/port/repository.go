package port

import (
	"context"
	"time"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/workflow"
)

// DossierRepository defines persistence operations for Dossier
type DossierRepository interface {
	Create(ctx context.Context, d *entity.Dossier) error
	GetByID(ctx context.Context, id string) (*entity.Dossier, error)
	GetByNumero(ctx context.Context, numero string) (*entity.Dossier, error)
	List(ctx context.Context, filter entity.DossierFilter) ([]*entity.Dossier, error)
	CountByStatut(ctx context.Context) (map[workflow.State]int, error)

	// UpdateWorkflow writes statut and every workflow field of d, provided the
	// persisted statut still equals expected. It reports false when no row matched.
	UpdateWorkflow(ctx context.Context, d *entity.Dossier, expected workflow.State) (bool, error)
}

// HistoryRepository defines persistence operations for DossierHistory
type HistoryRepository interface {
	Create(ctx context.Context, h *entity.DossierHistory) error
	ListByDossier(ctx context.Context, dossierID string) ([]*entity.DossierHistory, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByRole(ctx context.Context, role workflow.Role) ([]*entity.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	// MarkRead reports false when the notification does not exist for that user
	MarkRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	// DeleteReadBefore purges notifications read before the cutoff
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// FolderRepository defines persistence operations for Folder and its documents
type FolderRepository interface {
	Create(ctx context.Context, f *entity.Folder) error
	GetByID(ctx context.Context, id string) (*entity.Folder, error)
	AddDocument(ctx context.Context, doc *entity.Document) error
	GetDocument(ctx context.Context, id string) (*entity.Document, error)
	ListDocuments(ctx context.Context, folderID string) ([]*entity.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// QuitusRepository defines persistence operations for Quitus
type QuitusRepository interface {
	// Create fails with a unique constraint error if the dossier already has one
	Create(ctx context.Context, q *entity.Quitus) error
	GetByDossierID(ctx context.Context, dossierID string) (*entity.Quitus, error)
}

// ReferentielRepository reads the reference data seeded by migrations
type ReferentielRepository interface {
	ListTypesOperation(ctx context.Context) ([]*entity.TypeOperation, error)
	GetTypeOperation(ctx context.Context, id string) (*entity.TypeOperation, error)
	ListNatures(ctx context.Context, typeOperationID string) ([]*entity.NatureOperation, error)
	GetNature(ctx context.Context, id string) (*entity.NatureOperation, error)
	ListPieces(ctx context.Context, natureOperationID string) ([]*entity.PieceJustificative, error)
	ListVerificationCategories(ctx context.Context) ([]*entity.VerificationCategory, error)
	ListVerificationItems(ctx context.Context) ([]entity.VerificationItem, error)
}

// ValidationRepository stores the CB type-of-operation validation and the ordonnateur checklist
type ValidationRepository interface {
	// SaveOperationValidation replaces any previous validation of the dossier
	SaveOperationValidation(ctx context.Context, v *entity.OperationValidation) error
	GetOperationValidation(ctx context.Context, dossierID string) (*entity.OperationValidation, error)
	UpsertVerificationAnswer(ctx context.Context, a *entity.VerificationAnswer) error
	ListVerificationAnswers(ctx context.Context, dossierID string) ([]entity.VerificationAnswer, error)
}

// NumberingRepository hands out sequence values per establishment and year
type NumberingRepository interface {
	Next(ctx context.Context, code string, year int) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
