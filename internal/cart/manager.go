package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/metrics"
)

// Manager owns one cart store per storefront session. Stores are created and
// rehydrated on first access and dropped when the session ends.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	storage      Storage
	flushTimeout time.Duration
	logg         *logger.Logger
	metrics      *metrics.CartMetrics
}

// ManagerParams configures the cart manager.
type ManagerParams struct {
	Storage      Storage
	FlushTimeout time.Duration
	Logger       *logger.Logger
	Metrics      *metrics.CartMetrics
}

// NewManager builds a manager backed by the given durable storage.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("storage required")
	}
	return &Manager{
		stores:       map[string]*Store{},
		storage:      params.Storage,
		flushTimeout: params.FlushTimeout,
		logg:         params.Logger,
		metrics:      params.Metrics,
	}, nil
}

// ForSession returns the session's store, rehydrating it first if needed.
// Callers always receive a ready store or an error.
func (m *Manager) ForSession(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	m.mu.Lock()
	store, ok := m.stores[sessionID]
	if !ok {
		var err error
		store, err = NewStore(StoreParams{
			Key:          sessionID,
			Storage:      m.storage,
			FlushTimeout: m.flushTimeout,
			Logger:       m.logg,
			Metrics:      m.metrics,
		})
		if err != nil {
			m.mu.Unlock()
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart store")
		}
		m.stores[sessionID] = store
	}
	m.mu.Unlock()

	if !store.Ready() {
		if err := store.Rehydrate(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load persisted cart")
		}
	}
	return store, nil
}

// Drop forgets the in-memory store for a session. The durable record stays;
// a returning session rehydrates from it.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}

// FlushAll synchronously persists every live store. Used on shutdown.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	stores := make([]*Store, 0, len(m.stores))
	for _, store := range m.stores {
		stores = append(stores, store)
	}
	m.mu.Unlock()

	for _, store := range stores {
		if !store.Ready() {
			continue
		}
		if err := store.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
