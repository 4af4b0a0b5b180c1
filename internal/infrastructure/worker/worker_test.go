package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type purgeRepo struct {
	port.NotificationRepository

	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (r *purgeRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	if r.err != nil {
		return 0, r.err
	}
	return 3, nil
}

func (r *purgeRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestNotificationCleanupWorker_PurgesPeriodically(t *testing.T) {
	repo := &purgeRepo{}
	w := NewNotificationCleanupWorker(CleanupConfig{Interval: 10 * time.Millisecond, Retention: 24 * time.Hour}, repo, zap.NewNop())
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "second start must fail")

	assert.Eventually(t, func() bool { return repo.calls() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Equal(t, fixed.Add(-24*time.Hour), repo.cutoffs[0])
	assert.GreaterOrEqual(t, w.Purged(), int64(6))
	assert.NoError(t, w.Stop(), "stop is idempotent")
}

func TestNotificationCleanupWorker_ErrorsDoNotStopLoop(t *testing.T) {
	repo := &purgeRepo{err: errors.New("database is locked")}
	w := NewNotificationCleanupWorker(CleanupConfig{Interval: 5 * time.Millisecond, Retention: time.Hour}, repo, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return repo.calls() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())
	assert.Equal(t, int64(0), w.Purged())
}

type stubWorker struct {
	name     string
	startErr error
	started  bool
	stopped  bool
	order    *[]string
}

func (s *stubWorker) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *stubWorker) Stop() error {
	s.stopped = true
	*s.order = append(*s.order, s.name)
	return nil
}

func (s *stubWorker) Name() string { return s.name }

func TestManager_Lifecycle(t *testing.T) {
	var order []string
	a := &stubWorker{name: "a", order: &order}
	b := &stubWorker{name: "b", startErr: errors.New("boom"), order: &order}
	c := &stubWorker{name: "c", order: &order}

	m := NewManager(zap.NewNop())
	m.Register(a)
	m.Register(b)
	m.Register(c)
	assert.Equal(t, 3, m.Count())

	err := m.StartAll(context.Background())
	assert.ErrorContains(t, err, "b: boom")
	assert.True(t, a.started)
	assert.True(t, c.started, "a failing worker does not block the next ones")
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	require.NoError(t, m.StopAll())
	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.False(t, m.IsRunning())
	assert.NoError(t, m.StopAll())
}
