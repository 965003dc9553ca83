package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/metrics"
	"github.com/shopspring/decimal"
)

const defaultFlushTimeout = 5 * time.Second

// Store holds what one shopper intends to buy. Items keep their insertion
// order and are unique per product id. TotalItems and TotalPrice are
// recomputed inside every mutation, so readers never observe stale
// aggregates.
//
// Mutations never fail: persistence runs in the background and a failed save
// only lags the durable copy, it does not touch the in-memory state.
type Store struct {
	mu         sync.Mutex
	key        string
	items      []LineItem
	index      map[string]int
	totalItems int
	totalPrice decimal.Decimal
	ready      bool
	seq        uint64

	storage      Storage
	flushTimeout time.Duration
	logg         *logger.Logger
	metrics      *metrics.CartMetrics

	flushMu sync.Mutex
	flushed uint64
}

// StoreParams configures a cart store instance.
type StoreParams struct {
	Key          string
	Storage      Storage
	FlushTimeout time.Duration
	Logger       *logger.Logger
	Metrics      *metrics.CartMetrics
}

// NewStore builds an empty, not-yet-rehydrated store.
func NewStore(params StoreParams) (*Store, error) {
	if params.Key == "" {
		return nil, fmt.Errorf("store key required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("storage required")
	}
	if params.FlushTimeout <= 0 {
		params.FlushTimeout = defaultFlushTimeout
	}
	return &Store{
		key:          params.Key,
		index:        map[string]int{},
		totalPrice:   decimal.Zero,
		storage:      params.Storage,
		flushTimeout: params.FlushTimeout,
		logg:         params.Logger,
		metrics:      params.Metrics,
	}, nil
}

// Rehydrate loads the persisted record and recomputes aggregates from its
// items; stored aggregates are never trusted. A missing record yields an
// empty ready store. Until Rehydrate succeeds reads are not authoritative.
//
// Once the store is ready Rehydrate is a no-op: a racing second rehydration
// must never discard mutations applied after the first one completed.
func (s *Store) Rehydrate(ctx context.Context) error {
	if s.Ready() {
		return nil
	}

	loaded, err := s.storage.Load(ctx, s.key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	s.items = s.items[:0]
	s.index = map[string]int{}
	for _, item := range loaded {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		if _, exists := s.index[item.ID]; exists {
			continue
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, cloneItem(item))
	}
	s.recomputeLocked()
	s.ready = true
	s.metrics.IncRehydration()
	return nil
}

// Ready reports whether rehydration has completed.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Add inserts the item or, when the product is already in the cart, merges
// additively into the existing line. A descriptor without an explicit
// quantity counts as one. Stock is not validated here; callers clamp before
// calling.
func (s *Store) Add(item LineItem) {
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}

	s.mu.Lock()
	if pos, ok := s.index[item.ID]; ok {
		s.items[pos].Quantity += qty
	} else {
		item = cloneItem(item)
		item.Quantity = qty
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	s.recomputeLocked()
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.flushAsync(snapshot, seq)
}

// Remove deletes the line with the given id; absent ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return
	}
	s.removeLocked(id)
	s.recomputeLocked()
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.flushAsync(snapshot, seq)
}

// SetQuantity replaces the quantity of an existing line. Zero or negative
// quantity deletes the line; an id not in the cart is a no-op.
func (s *Store) SetQuantity(id string, quantity int) {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if quantity <= 0 {
		s.removeLocked(id)
	} else {
		s.items[pos].Quantity = quantity
	}
	s.recomputeLocked()
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.flushAsync(snapshot, seq)
}

// Clear empties the cart and resets both aggregates.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = s.items[:0]
	s.index = map[string]int{}
	s.recomputeLocked()
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.flushAsync(snapshot, seq)
}

// ItemQuantity returns the quantity for the given product id, zero when the
// product is not in the cart.
func (s *Store) ItemQuantity(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos, ok := s.index[id]; ok {
		return s.items[pos].Quantity
	}
	return 0
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// TotalItems is the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems
}

// TotalPrice is the sum of unit price times quantity over all lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPrice
}

// View returns the lines and both aggregates read under one lock, so the
// totals always correspond to the returned items.
func (s *Store) View() ([]LineItem, int, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items), s.totalItems, s.totalPrice
}

// Flush writes the current snapshot synchronously. Used on shutdown; regular
// mutations persist in the background.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	snapshot, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	if seq < s.flushed {
		return nil
	}
	s.flushed = seq
	return s.storage.Save(ctx, s.key, snapshot)
}

func (s *Store) removeLocked(id string) {
	pos := s.index[id]
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].ID] = i
	}
}

func (s *Store) recomputeLocked() {
	totalItems := 0
	totalPrice := decimal.Zero
	for _, item := range s.items {
		totalItems += item.Quantity
		totalPrice = totalPrice.Add(item.Subtotal())
	}
	s.totalItems = totalItems
	s.totalPrice = totalPrice
}

func (s *Store) snapshotLocked() ([]LineItem, uint64) {
	s.seq++
	return cloneItems(s.items), s.seq
}

func (s *Store) flushAsync(items []LineItem, seq uint64) {
	go func() {
		s.flushMu.Lock()
		defer s.flushMu.Unlock()
		if seq <= s.flushed {
			// a newer snapshot already went to storage
			return
		}
		s.flushed = seq

		ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
		defer cancel()
		if err := s.storage.Save(ctx, s.key, items); err != nil {
			s.metrics.IncPersistFailure()
			if s.logg != nil {
				lctx := s.logg.WithField(context.Background(), "cart_key", s.key)
				s.logg.Error(lctx, "cart.persist_failed", err)
			}
		}
	}()
}
