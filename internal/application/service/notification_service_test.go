package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	"github.com/ac-tresor/dossiers/internal/domain/errs"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secretaire = &entity.User{ID: "u-sec", FullName: "Awa Secrétaire", Role: domainwf.RoleSecretaire, Active: true}
	controleur = &entity.User{ID: "u-cb", FullName: "Contrôleur", Role: domainwf.RoleControleurBudgetaire, Active: true}
	ordonnat   = &entity.User{ID: "u-ord", FullName: "Ordonnateur", Role: domainwf.RoleOrdonnateur, Active: true}
	comptable  = &entity.User{ID: "u-ac", FullName: "Agent Comptable", Role: domainwf.RoleAgentComptable, Active: true}
	comptable2 = &entity.User{ID: "u-ac2", FullName: "Fondé de pouvoir", Role: domainwf.RoleAgentComptable, Active: true}
	inactiveAC = &entity.User{ID: "u-ac3", FullName: "Ancien comptable", Role: domainwf.RoleAgentComptable, Active: false}
)

func newNotificationFixture() (NotificationService, *mockNotificationRepo) {
	repo := &mockNotificationRepo{}
	users := newMockUserRepo(secretaire, controleur, ordonnat, comptable, comptable2, inactiveAC)
	return NewNotificationService(repo, users, &mockTxManager{}, nil), repo
}

func dossierEvent(t event.Type, actor string) *event.Event {
	return event.NewEvent(t, event.Subject{
		DossierID:     "d-1",
		NumeroDossier: "DC-2026-00001",
		SecretaireID:  secretaire.ID,
	}, actor)
}

func TestNotificationService_RejectionNotifiesSecretary(t *testing.T) {
	svc, repo := newNotificationFixture()

	err := svc.HandleEvent(context.Background(), dossierEvent(event.TypeDossierRejectedCB, controleur.ID).WithReason("Pièce manquante"))
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.Equal(t, secretaire.ID, n.UserID)
	assert.Equal(t, entity.NotificationDossierRejectedCB, n.Kind)
	assert.Equal(t, "DC-2026-00001", n.NumeroDossier)
	assert.Equal(t, "Pièce manquante", n.RejectionReason)
	assert.Contains(t, n.Message, "DC-2026-00001")
}

func TestNotificationService_Recipients(t *testing.T) {
	tests := []struct {
		name      string
		eventType event.Type
		actor     string
		want      map[string]entity.NotificationKind
	}{
		{
			name:      "created notifies controllers",
			eventType: event.TypeDossierCreated,
			actor:     secretaire.ID,
			want:      map[string]entity.NotificationKind{controleur.ID: entity.NotificationDossierSubmitted},
		},
		{
			name:      "cb validation notifies secretary and ordonnateur",
			eventType: event.TypeDossierValidatedCB,
			actor:     controleur.ID,
			want: map[string]entity.NotificationKind{
				secretaire.ID: entity.NotificationDossierValidatedCB,
				ordonnat.ID:   entity.NotificationDossierPending,
			},
		},
		{
			name:      "ordonnancement notifies active accountants as pending",
			eventType: event.TypeDossierOrdonnanced,
			actor:     ordonnat.ID,
			want: map[string]entity.NotificationKind{
				secretaire.ID: entity.NotificationDossierOrdonnanced,
				controleur.ID: entity.NotificationDossierOrdonnanced,
				comptable.ID:  entity.NotificationDossierPending,
				comptable2.ID: entity.NotificationDossierPending,
			},
		},
		{
			name:      "definitive validation notifies secretary",
			eventType: event.TypeDossierValidatedDefinitively,
			actor:     comptable.ID,
			want:      map[string]entity.NotificationKind{secretaire.ID: entity.NotificationDossierValidatedDef},
		},
		{
			name:      "closure notifies secretary",
			eventType: event.TypeDossierClosed,
			actor:     comptable.ID,
			want:      map[string]entity.NotificationKind{secretaire.ID: entity.NotificationDossierComptabilise},
		},
		{
			name:      "quitus generation is silent",
			eventType: event.TypeQuitusGenerated,
			actor:     comptable.ID,
			want:      map[string]entity.NotificationKind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newNotificationFixture()
			require.NoError(t, svc.HandleEvent(context.Background(), dossierEvent(tt.eventType, tt.actor)))

			got := make(map[string]entity.NotificationKind)
			for _, n := range repo.created {
				got[n.UserID] = n.Kind
				assert.Equal(t, "d-1", n.DossierID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNotificationService_PersistenceFailure(t *testing.T) {
	repo := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *entity.Notification) error {
			return errors.New("database is locked")
		},
	}
	svc := NewNotificationService(repo, newMockUserRepo(secretaire), &mockTxManager{}, nil)

	err := svc.HandleEvent(context.Background(), dossierEvent(event.TypeDossierClosed, comptable.ID))
	assert.ErrorIs(t, err, errs.ErrPersistence)
}

func TestNotificationService_ReadFlow(t *testing.T) {
	svc, repo := newNotificationFixture()
	ctx := context.Background()
	sec := entity.Principal{UserID: secretaire.ID, Role: domainwf.RoleSecretaire}
	cb := entity.Principal{UserID: controleur.ID, Role: domainwf.RoleControleurBudgetaire}

	require.NoError(t, svc.HandleEvent(ctx, dossierEvent(event.TypeDossierValidatedCB, controleur.ID)))
	require.NoError(t, svc.HandleEvent(ctx, dossierEvent(event.TypeDossierClosed, comptable.ID)))

	count, err := svc.UnreadCount(ctx, sec)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	first := repo.forUser(secretaire.ID)[0]
	assert.ErrorIs(t, svc.MarkRead(ctx, cb, first.ID), errs.ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, sec, first.ID))

	unread, err := svc.ListForUser(ctx, sec, true, 0, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err := svc.MarkAllRead(ctx, sec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	empty, err := svc.ListForUser(ctx, cb, false, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
