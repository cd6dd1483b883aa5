// Package memory provides an in-memory carrier store for tests and local
// runs without a database file.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/delivro/rateshop/pkg/carrier"
)

// Store implements carrier.Store with a mutex-guarded map. The mutex makes
// the check-and-insert in Insert atomic, matching the uniqueness contract.
type Store struct {
	mu     sync.RWMutex
	byName map[string]carrier.Carrier
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{byName: make(map[string]carrier.Carrier)}
}

// List returns all carriers ordered ascending by name.
func (s *Store) List(ctx context.Context) ([]carrier.Carrier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]carrier.Carrier, 0, len(s.byName))
	for _, c := range s.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Insert persists a new carrier, failing on a duplicate name.
func (s *Store) Insert(ctx context.Context, c carrier.Carrier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[c.Name]; ok {
		return fmt.Errorf("%w: %s", carrier.ErrDuplicateName, c.Name)
	}
	s.byName[c.Name] = c
	return nil
}

// UpdatePrice updates the named carrier and returns the new row, or nil when
// no carrier matched.
func (s *Store) UpdatePrice(ctx context.Context, name string, price int64, updatedAt time.Time) (*carrier.Carrier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	c.PricePerParcel = price
	c.UpdatedAt = updatedAt
	s.byName[name] = c
	return &c, nil
}

// Delete removes the named carrier, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; !ok {
		return false, nil
	}
	delete(s.byName, name)
	return true, nil
}

// Count returns the number of stored carriers.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byName)), nil
}

var _ carrier.Store = (*Store)(nil)
