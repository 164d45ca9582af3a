// Package store holds the authoritative in-memory collections of customers
// and history records. It owns identity and referential integrity: a
// customer removal cascades to every history record referencing it. Display
// order is never the store's concern; collections keep insertion order and
// the query engine produces every sorted view.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ksmori/daicho/internal/gateway"
	"github.com/ksmori/daicho/internal/models"
)

// ErrNotFound is returned by lookups when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the single process-wide holder of both collections. It is
// constructed once at startup, loaded from the gateway, and passed by
// reference to the query engine and the mutation service.
type Store struct {
	mu        sync.RWMutex
	gw        gateway.Gateway
	logger    *slog.Logger
	customers []models.Customer
	history   []models.HistoryRecord
	unsynced  bool
}

// New creates a Store backed by the given gateway. Call Load before use.
func New(gw gateway.Gateway, logger *slog.Logger) *Store {
	return &Store{
		gw:     gw,
		logger: logger.With("component", "store"),
	}
}

// Load reads both collections from the gateway. An absent slot yields an
// empty collection. A malformed blob is logged and degraded to an empty
// collection rather than failing startup.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, err := loadSlot[models.Customer](s.gw, gateway.SlotCustomers, s.logger)
	if err != nil {
		return err
	}
	history, err := loadSlot[models.HistoryRecord](s.gw, gateway.SlotHistory, s.logger)
	if err != nil {
		return err
	}

	s.customers = customers
	s.history = history
	s.unsynced = false
	return nil
}

func loadSlot[T any](gw gateway.Gateway, slot string, logger *slog.Logger) ([]T, error) {
	blob, ok, err := gw.Load(slot)
	if err != nil {
		return nil, fmt.Errorf("loading slot %s: %w", slot, err)
	}
	if !ok {
		return nil, nil
	}
	var records []T
	if err := json.Unmarshal(blob, &records); err != nil {
		logger.Warn("malformed collection blob, starting empty", "slot", slot, "error", err)
		return nil, nil
	}
	return records, nil
}

// Sync writes both collections back to the gateway. On failure the in-memory
// state stays authoritative and the store is marked unsynced until the next
// successful Sync.
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveSlot(gateway.SlotCustomers, s.customers); err != nil {
		s.unsynced = true
		return err
	}
	if err := s.saveSlot(gateway.SlotHistory, s.history); err != nil {
		s.unsynced = true
		return err
	}
	s.unsynced = false
	return nil
}

func (s *Store) saveSlot(slot string, records any) error {
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding slot %s: %w", slot, err)
	}
	if err := s.gw.Save(slot, blob); err != nil {
		return fmt.Errorf("saving slot %s: %w", slot, err)
	}
	return nil
}

// Unsynced reports whether the in-memory state is ahead of durable state.
func (s *Store) Unsynced() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsynced
}

// FindCustomer returns the customer with the given id, or ErrNotFound.
func (s *Store) FindCustomer(id string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			c := s.customers[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id)
}

// FindHistory returns the history record with the given id, or ErrNotFound.
func (s *Store) FindHistory(id string) (*models.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.history {
		if s.history[i].ID == id {
			h := s.history[i]
			return &h, nil
		}
	}
	return nil, fmt.Errorf("%w: history %s", ErrNotFound, id)
}

// UpsertCustomer replaces the customer with a matching id, or appends when
// none matches. The whole record is replaced, never patched.
func (s *Store) UpsertCustomer(c models.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == c.ID {
			s.customers[i] = c
			return
		}
	}
	s.customers = append(s.customers, c)
}

// UpsertHistory replaces the history record with a matching id, or appends
// when none matches.
func (s *Store) UpsertHistory(h models.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == h.ID {
			s.history[i] = h
			return
		}
	}
	s.history = append(s.history, h)
}

// RemoveCustomer deletes the customer and cascades to every history record
// referencing it. Returns whether the customer existed and how many history
// records the cascade removed. Removing a missing id is a no-op.
func (s *Store) RemoveCustomer(id string) (removed bool, cascaded int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.customers[:0]
	for _, c := range s.customers {
		if c.ID == id {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	s.customers = kept

	if !removed {
		return false, 0
	}

	keptHistory := s.history[:0]
	for _, h := range s.history {
		if h.CustomerID == id {
			cascaded++
			continue
		}
		keptHistory = append(keptHistory, h)
	}
	s.history = keptHistory
	return true, cascaded
}

// RemoveHistory deletes the history record with the given id. Removing a
// missing id is a no-op; the return value reports whether anything changed.
func (s *Store) RemoveHistory(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			return true
		}
	}
	return false
}

// Customers returns a copy of the customer collection in insertion order.
func (s *Store) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Customer, len(s.customers))
	copy(out, s.customers)
	return out
}

// History returns a copy of the history collection in insertion order.
func (s *Store) History() []models.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.HistoryRecord, len(s.history))
	copy(out, s.history)
	return out
}
