package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ac-tresor/dossiers/internal/domain/entity"
	domainwf "github.com/ac-tresor/dossiers/internal/domain/workflow"
)

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User

	listErr error
}

func newMockUserRepo(users ...*entity.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role domainwf.Role) ([]*entity.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.User
	for _, u := range m.users {
		if u.Role == role && u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = hash
	return nil
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	created []*entity.Notification

	createFunc   func(ctx context.Context, n *entity.Notification) error
	markReadFunc func(ctx context.Context, id, userID string) (bool, error)
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Notification
	for _, n := range m.created {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	list, _ := m.ListByUser(ctx, userID, true, 0, 0)
	return len(list), nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.created {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.created {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (m *mockNotificationRepo) forUser(userID string) []*entity.Notification {
	list, _ := m.ListByUser(context.Background(), userID, false, 0, 0)
	return list
}
