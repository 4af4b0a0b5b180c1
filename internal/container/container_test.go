package container

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ac-tresor/dossiers/internal/application/service"
	"github.com/ac-tresor/dossiers/internal/application/workflow"
	"github.com/ac-tresor/dossiers/internal/domain/event"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
	"github.com/ac-tresor/dossiers/internal/metrics"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "dossiers.db")
	cfg.Storage.BaseDir = filepath.Join(dir, "files")
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	cfg.Auth.BcryptCost = 4
	cfg.Worker.CleanupInterval = time.Hour
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewContainer(nil, logger, nil)
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil, nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "short"
	_, err = NewContainer(cfg, logger, nil)
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestContainer_Lifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)

	c, err := NewContainer(testConfig(t), zap.NewNop(), m)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start must fail")

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, 1, c.Workers().Count())

	require.NotNil(t, c.Engine())
	require.NotNil(t, c.Services().Dossier)
	assert.Same(t, m, c.Metrics())

	handlers := c.Dispatcher().ListHandlers(event.TypeDossierRejectedCB)
	require.Len(t, handlers, 1)
	assert.Equal(t, "notifications", handlers[0].Name)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(ctx))
}

func TestContainer_WiresWorkflowEndToEnd(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	auth := c.Services().Auth
	_, err = auth.CreateUser(ctx, service.CreateUserInput{
		Email: "sec@tresor.test", FullName: "Awa Secrétaire", Role: "SECRETAIRE", Password: "motdepasse1",
	})
	require.NoError(t, err)
	_, err = auth.CreateUser(ctx, service.CreateUserInput{
		Email: "cb@tresor.test", FullName: "Contrôle Budgétaire", Role: "CONTROLEUR_BUDGETAIRE", Password: "motdepasse1",
	})
	require.NoError(t, err)

	login, err := auth.Login(ctx, "sec@tresor.test", "motdepasse1")
	require.NoError(t, err)
	secretaire, err := auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)

	login, err = auth.Login(ctx, "cb@tresor.test", "motdepasse1")
	require.NoError(t, err)
	cb, err := auth.Authenticate(ctx, login.Token)
	require.NoError(t, err)

	d, err := c.Services().Dossier.Create(ctx, secretaire, service.CreateDossierInput{
		ObjetOperation: "Achat de fournitures",
		Beneficiaire:   "Papeterie du Centre",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.NumeroDossier, "DC-"))

	// strict mode: the type of operation must be validated first
	_, err = c.Engine().ValidateCB(ctx, cb, d.ID, "")
	require.Error(t, err)

	rejected, err := c.Engine().RejectCB(ctx, cb, d.ID, workflow.RejectInput{Reason: "Pièce manquante"})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StateRejeteCB, rejected.Statut)

	assert.Eventually(t, func() bool {
		n, err := c.Services().Notification.UnreadCount(ctx, secretaire)
		return err == nil && n >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestZapLogger_ConvertsPairs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewZapLogger(zap.New(core))

	l.Info("dossier rejected", "dossier_id", "d1", "attempt", 2, 42, "ignored", "dangling")
	l.Error("failed", "error", assert.AnError)

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "d1", fields["dossier_id"])
	assert.EqualValues(t, 2, fields["attempt"])
	assert.Len(t, fields, 2)
	assert.Equal(t, assert.AnError.Error(), entries[1].ContextMap()["error"])
}
