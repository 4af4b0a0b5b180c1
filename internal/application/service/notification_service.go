package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/google/uuid"
)

const defaultNotificationLimit = 50

// NotificationService persists in-app notifications for workflow events and
// serves them back to their recipients
type NotificationService interface {
	// HandleEvent fans an event out to its recipients; it is a dispatcher.Handler
	HandleEvent(ctx context.Context, evt *event.Event) error

	// EventTypes lists the events HandleEvent reacts to
	EventTypes() []event.Type

	ListForUser(ctx context.Context, p entity.Principal, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	UnreadCount(ctx context.Context, p entity.Principal) (int, error)
	MarkRead(ctx context.Context, p entity.Principal, id string) error
	MarkAllRead(ctx context.Context, p entity.Principal) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	userRepo         port.UserRepository
	txManager        port.TransactionManager
	logger           Logger
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		txManager:        txManager,
		logger:           orNop(logger),
		now:              time.Now,
	}
}

// recipient is either one user or every active user holding a role
type recipient struct {
	userID string
	role   domainwf.Role
	kind   entity.NotificationKind
	title  string
	body   string
}

func (s *notificationServiceImpl) EventTypes() []event.Type {
	return []event.Type{
		event.TypeDossierCreated,
		event.TypeDossierValidatedCB,
		event.TypeDossierRejectedCB,
		event.TypeDossierOrdonnanced,
		event.TypeDossierValidatedDefinitively,
		event.TypeDossierClosed,
	}
}

func (s *notificationServiceImpl) recipients(evt *event.Event) []recipient {
	numero := evt.NumeroDossier

	switch evt.Type {
	case event.TypeDossierCreated:
		return []recipient{{
			role:  domainwf.RoleControleurBudgetaire,
			kind:  entity.NotificationDossierSubmitted,
			title: "Nouveau dossier à contrôler",
			body:  fmt.Sprintf("Le dossier %s a été déposé et attend le contrôle budgétaire.", numero),
		}}

	case event.TypeDossierValidatedCB:
		return []recipient{
			{
				userID: evt.SecretaireID,
				kind:   entity.NotificationDossierValidatedCB,
				title:  "Dossier validé par le contrôle budgétaire",
				body:   fmt.Sprintf("Le dossier %s a été validé par le contrôleur budgétaire.", numero),
			},
			{
				role:  domainwf.RoleOrdonnateur,
				kind:  entity.NotificationDossierPending,
				title: "Dossier en attente d'ordonnancement",
				body:  fmt.Sprintf("Le dossier %s attend votre ordonnancement.", numero),
			},
		}

	case event.TypeDossierRejectedCB:
		return []recipient{{
			userID: evt.SecretaireID,
			kind:   entity.NotificationDossierRejectedCB,
			title:  "Dossier rejeté",
			body:   fmt.Sprintf("Le dossier %s a été rejeté par le contrôleur budgétaire : %s", numero, evt.Reason),
		}}

	case event.TypeDossierOrdonnanced:
		ordonnanced := fmt.Sprintf("Le dossier %s a été ordonnancé.", numero)
		return []recipient{
			{
				userID: evt.SecretaireID,
				kind:   entity.NotificationDossierOrdonnanced,
				title:  "Dossier ordonnancé",
				body:   ordonnanced,
			},
			{
				role:  domainwf.RoleControleurBudgetaire,
				kind:  entity.NotificationDossierOrdonnanced,
				title: "Dossier ordonnancé",
				body:  ordonnanced,
			},
			{
				role:  domainwf.RoleAgentComptable,
				kind:  entity.NotificationDossierPending,
				title: "Dossier en attente de validation définitive",
				body:  fmt.Sprintf("Le dossier %s attend votre vérification.", numero),
			},
		}

	case event.TypeDossierValidatedDefinitively:
		return []recipient{{
			userID: evt.SecretaireID,
			kind:   entity.NotificationDossierValidatedDef,
			title:  "Dossier validé définitivement",
			body:   fmt.Sprintf("Le dossier %s a été validé par l'agent comptable.", numero),
		}}

	case event.TypeDossierClosed:
		return []recipient{{
			userID: evt.SecretaireID,
			kind:   entity.NotificationDossierComptabilise,
			title:  "Dossier comptabilisé",
			body:   fmt.Sprintf("Le dossier %s est clôturé et comptabilisé.", numero),
		}}
	}

	return nil
}

// HandleEvent persists one notification per recipient in a single transaction
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	targets := s.recipients(evt)
	if len(targets) == 0 {
		return nil
	}

	var notifications []*entity.Notification
	for _, r := range targets {
		userIDs, err := s.resolve(ctx, r, evt.ActorID)
		if err != nil {
			s.logger.Error("Failed to resolve notification recipients", "error", err, "event_type", evt.Type, "dossier_id", evt.DossierID)
			return err
		}
		for _, userID := range userIDs {
			n := &entity.Notification{
				ID:            uuid.NewString(),
				UserID:        userID,
				Kind:          r.kind,
				Title:         r.title,
				Message:       r.body,
				DossierID:     evt.DossierID,
				NumeroDossier: evt.NumeroDossier,
				CreatedAt:     s.now(),
			}
			if r.kind == entity.NotificationDossierRejectedCB {
				n.RejectionReason = evt.Reason
			}
			notifications = append(notifications, n)
		}
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, n := range notifications {
			if err := s.notificationRepo.Create(txCtx, n); err != nil {
				return errs.Persistence("create notification", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist notifications", "error", err, "event_type", evt.Type, "dossier_id", evt.DossierID)
		return err
	}

	s.logger.Info("Notifications created",
		"event_type", evt.Type,
		"dossier_id", evt.DossierID,
		"count", len(notifications),
	)
	return nil
}

// resolve returns the user ids of a recipient; the actor of the event is skipped
func (s *notificationServiceImpl) resolve(ctx context.Context, r recipient, actorID string) ([]string, error) {
	if r.userID != "" {
		return []string{r.userID}, nil
	}

	users, err := s.userRepo.ListByRole(ctx, r.role)
	if err != nil {
		return nil, errs.Persistence("list users by role", err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID != actorID {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, p entity.Principal, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.notificationRepo.ListByUser(ctx, p.UserID, unreadOnly, limit, offset)
	if err != nil {
		return nil, errs.Persistence("list notifications", err)
	}
	if notifications == nil {
		notifications = []*entity.Notification{}
	}
	return notifications, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, p entity.Principal) (int, error) {
	n, err := s.notificationRepo.CountUnread(ctx, p.UserID)
	return n, errs.Persistence("count unread notifications", err)
}

// MarkRead marks one notification read; another user's notification is NotFound
func (s *notificationServiceImpl) MarkRead(ctx context.Context, p entity.Principal, id string) error {
	ok, err := s.notificationRepo.MarkRead(ctx, id, p.UserID)
	if err != nil {
		return errs.Persistence("mark notification read", err)
	}
	if !ok {
		return errs.NotFound("notification %s", id)
	}
	return nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, p entity.Principal) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, p.UserID)
	return n, errs.Persistence("mark notifications read", err)
}
