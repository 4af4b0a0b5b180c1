package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ac-tresor/dossiers/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func newEvent(t event.Type) *event.Event {
	return event.NewEvent(t, event.Subject{DossierID: "d-1", NumeroDossier: "ACT-2026-00001"}, "u-1")
}

func TestSubscribe(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))

	d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error { return nil })
	d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error { return nil })

	handlers := d.ListHandlers(event.TypeDossierCreated)
	if len(handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(handlers))
	}
	if handlers[0].Name == handlers[1].Name {
		t.Errorf("expected distinct generated names, got %q twice", handlers[0].Name)
	}
	if handlers[0].Handler != nil {
		t.Error("ListHandlers should not expose handler functions")
	}
	if !logger.HasInfo("Handler registered") {
		t.Error("expected registration to be logged")
	}
}

func TestSubscribeMany(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int32

	d.SubscribeMany([]event.Type{event.TypeDossierValidatedCB, event.TypeDossierClosed}, "notifier",
		func(ctx context.Context, evt *event.Event) error {
			calls.Add(1)
			return nil
		})

	_ = d.Dispatch(context.Background(), newEvent(event.TypeDossierValidatedCB))
	_ = d.Dispatch(context.Background(), newEvent(event.TypeDossierClosed))
	_ = d.Dispatch(context.Background(), newEvent(event.TypeDossierCreated))

	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	called := false

	d.SubscribeNamed(event.TypeDossierRejectedCB, "notifier", func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})
	d.Unsubscribe(event.TypeDossierRejectedCB, "notifier")

	if err := d.Dispatch(context.Background(), newEvent(event.TypeDossierRejectedCB)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if called {
		t.Error("unsubscribed handler was called")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("runs handlers in order", func(t *testing.T) {
		d := NewDispatcher()
		var order []int

		d.Subscribe(event.TypeDossierOrdonnanced, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 1)
			return nil
		})
		d.Subscribe(event.TypeDossierOrdonnanced, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 2)
			return nil
		})

		if err := d.Dispatch(context.Background(), newEvent(event.TypeDossierOrdonnanced)); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("expected handlers to run in order [1, 2], got %v", order)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), newEvent(event.TypeDossierCreated))
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		if err := d.Dispatch(context.Background(), newEvent(event.TypeDossierCreated)); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged as error")
		}
	})

	t.Run("fails when closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), newEvent(event.TypeDossierCreated)); err == nil {
			t.Fatal("expected error when dispatching to closed dispatcher")
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("close waits for handlers", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeDossierClosed, func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newEvent(event.TypeDossierClosed))
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if called.Load() != 3 {
			t.Errorf("expected 3 handler calls, got %d", called.Load())
		}
	})

	t.Run("handlers survive caller cancellation", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value

		d.Subscribe(event.TypeDossierRejectedCB, func(ctx context.Context, evt *event.Event) error {
			ctxErr.Store(ctx.Err() == nil)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d.DispatchAsync(ctx, newEvent(event.TypeDossierRejectedCB))
		_ = d.Close()

		if ok, _ := ctxErr.Load().(bool); !ok {
			t.Error("expected handler context to be detached from cancellation")
		}
	})

	t.Run("logs handler errors", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error {
			return errors.New("boom")
		})

		d.DispatchAsync(context.Background(), newEvent(event.TypeDossierCreated))
		_ = d.Close()

		if logger.ErrorCount() == 0 {
			t.Error("expected async error to be logged")
		}
	})

	t.Run("ignored when closed", func(t *testing.T) {
		d := NewDispatcher()
		called := false
		d.Subscribe(event.TypeDossierCreated, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})
		_ = d.Close()

		d.DispatchAsync(context.Background(), newEvent(event.TypeDossierCreated))
		if called {
			t.Error("handler should not run after close")
		}
	})
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("expected error on second close")
	}
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher()
	var total atomic.Int32

	d.Subscribe(event.TypeDossierValidatedCB, func(ctx context.Context, evt *event.Event) error {
		total.Add(1)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.DispatchAsync(context.Background(), newEvent(event.TypeDossierValidatedCB))
			d.ListHandlers(event.TypeDossierValidatedCB)
		}()
	}
	wg.Wait()
	_ = d.Close()

	if total.Load() != 50 {
		t.Errorf("expected 50 handler calls, got %d", total.Load())
	}
}
