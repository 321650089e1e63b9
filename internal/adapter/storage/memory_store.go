package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/acme/orderdesk/internal/core/domain"
)

// MemoryStore is the default in-process order store.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]domain.Order)}
}

func (s *MemoryStore) Create(ctx context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	s.orders[order.ID] = order
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return nil, nil
	}
	return &order, nil
}

func (s *MemoryStore) Update(ctx context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.orders[order.ID]
	if !exists {
		return nil, nil
	}
	order.CreatedAt = existing.CreatedAt
	order.UpdatedAt = time.Now()
	s.orders[order.ID] = order
	return &order, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.orders[id]
	delete(s.orders, id)
	return existed, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, order)
	}
	return orders, nil
}
