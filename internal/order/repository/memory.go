package repository

import (
	"context"
	"fmt"
	"sync"

	"visaflow/internal/domain"
	"visaflow/internal/errors"
)

// InMemoryOrderRepository keeps orders in process with the same
// compare-and-swap semantics as the MySQL repository. Stored values are
// copies, so callers never share state with the store.
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *InMemoryOrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return errors.NewConflictError(fmt.Sprintf("order with id %s already exists", o.ID))
	}
	if o.Version == 0 {
		o.Version = 1
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *InMemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	return o.Clone(), nil
}

func (r *InMemoryOrderRepository) Save(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[o.ID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", o.ID))
	}
	if current.Version != o.Version {
		return errors.NewConflictError(fmt.Sprintf("order %s was modified concurrently (have version %d, stored %d)", o.ID, o.Version, current.Version))
	}

	o.Version++
	stored := o.Clone()
	// service options are fixed at creation
	stored.ServiceOptions = current.ServiceOptions
	r.orders[o.ID] = stored
	return nil
}

type InMemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[string]*domain.Match
}

func NewInMemoryMatchRepository() *InMemoryMatchRepository {
	return &InMemoryMatchRepository{matches: make(map[string]*domain.Match)}
}

func (r *InMemoryMatchRepository) Create(_ context.Context, m *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.matches[m.ID]; exists {
		return errors.NewConflictError(fmt.Sprintf("match with id %s already exists", m.ID))
	}
	if m.Version == 0 {
		m.Version = 1
	}
	r.matches[m.ID] = m.Clone()
	return nil
}

func (r *InMemoryMatchRepository) FindByID(_ context.Context, id string) (*domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[id]
	if !ok {
		return nil, errors.NewNotFoundError(fmt.Sprintf("match with id %s not found", id))
	}
	return m.Clone(), nil
}

func (r *InMemoryMatchRepository) Save(_ context.Context, m *domain.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.matches[m.ID]
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("match with id %s not found", m.ID))
	}
	if current.Version != m.Version {
		return errors.NewConflictError(fmt.Sprintf("match %s was modified concurrently (have version %d, stored %d)", m.ID, m.Version, current.Version))
	}

	m.Version++
	r.matches[m.ID] = m.Clone()
	return nil
}

// Count returns the number of stored matches.
func (r *InMemoryMatchRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}
