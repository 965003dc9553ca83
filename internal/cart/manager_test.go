package cart

import (
	"context"
	"fmt"
	"sync"
	"testing"

	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
)

func newTestManager(t *testing.T, storage Storage) *Manager {
	t.Helper()
	manager, err := NewManager(ManagerParams{Storage: storage})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager
}

func TestManagerForSessionReturnsSameStore(t *testing.T) {
	manager := newTestManager(t, newStubStorage())

	first, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	if !first.Ready() {
		t.Fatal("expected a rehydrated store")
	}

	second, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	if first != second {
		t.Fatal("same session should reuse the store")
	}

	other, err := manager.ForSession(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	if other == first {
		t.Fatal("sessions must not share a store")
	}
}

func TestManagerConcurrentFirstAccessKeepsMutations(t *testing.T) {
	manager := newTestManager(t, newStubStorage())

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := manager.ForSession(context.Background(), "sess-1")
			if err != nil {
				t.Errorf("ForSession failed: %v", err)
				return
			}
			store.Add(lineItem(fmt.Sprintf("P%d", i), 10, 1))
		}(i)
	}
	wg.Wait()

	store, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	if got := store.TotalItems(); got != workers {
		t.Fatalf("concurrent first access dropped mutations: %d items, want %d", got, workers)
	}
}

func TestManagerForSessionRequiresID(t *testing.T) {
	manager := newTestManager(t, newStubStorage())

	_, err := manager.ForSession(context.Background(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestManagerForSessionLoadFailure(t *testing.T) {
	storage := newStubStorage()
	storage.loadErr = context.DeadlineExceeded
	manager := newTestManager(t, storage)

	_, err := manager.ForSession(context.Background(), "sess-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("unexpected error %v", err)
	}

	// once storage recovers the same session rehydrates fine
	storage.mu.Lock()
	storage.loadErr = nil
	storage.mu.Unlock()
	store, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession after recovery failed: %v", err)
	}
	if !store.Ready() {
		t.Fatal("expected a rehydrated store")
	}
}

func TestManagerDropKeepsDurableRecord(t *testing.T) {
	storage := newStubStorage()
	manager := newTestManager(t, storage)

	store, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	store.Add(lineItem("A", 100, 2))
	if err := store.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	manager.Drop("sess-1")

	reloaded, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	if reloaded == store {
		t.Fatal("dropped session should build a fresh store")
	}
	if got := reloaded.ItemQuantity("A"); got != 2 {
		t.Fatalf("durable record lost, quantity %d", got)
	}
}

func TestManagerFlushAll(t *testing.T) {
	storage := newStubStorage()
	manager := newTestManager(t, storage)

	store, err := manager.ForSession(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("ForSession failed: %v", err)
	}
	store.Add(lineItem("A", 10, 1))

	if err := manager.FlushAll(context.Background()); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}
	got := storage.stored("sess-1")
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("unexpected persisted record %+v", got)
	}
}
