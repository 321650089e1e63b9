package storage

import (
	"context"
	"sync"
)

// MemoryLedger is the default in-process inventory ledger. A single RWMutex
// guards the table; entries that reach quantity 0 are dropped, so ListAll
// never contains zero quantities and Quantity reports 0 for unknown SKUs.
type MemoryLedger struct {
	mu    sync.RWMutex
	stock map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stock: make(map[string]int)}
}

func (l *MemoryLedger) Quantity(ctx context.Context, sku string) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stock[sku], nil
}

func (l *MemoryLedger) Add(ctx context.Context, sku string, qty int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sku == "" || qty <= 0 {
		return l.stock[sku], nil
	}
	l.stock[sku] += qty
	return l.stock[sku], nil
}

func (l *MemoryLedger) Remove(ctx context.Context, sku string, qty int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sku == "" || qty <= 0 {
		return l.stock[sku], nil
	}
	remaining := l.stock[sku] - qty
	if remaining <= 0 {
		delete(l.stock, sku)
		return 0, nil
	}
	l.stock[sku] = remaining
	return remaining, nil
}

func (l *MemoryLedger) Set(ctx context.Context, sku string, qty int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sku == "" {
		return 0, nil
	}
	if qty <= 0 {
		delete(l.stock, sku)
		return 0, nil
	}
	l.stock[sku] = qty
	return qty, nil
}

func (l *MemoryLedger) Delete(ctx context.Context, sku string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, existed := l.stock[sku]
	delete(l.stock, sku)
	return existed, nil
}

func (l *MemoryLedger) Reserve(ctx context.Context, sku string, qty int) (int, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sku == "" || qty <= 0 {
		return l.stock[sku], false, nil
	}
	current := l.stock[sku]
	if current < qty {
		return current, false, nil
	}
	remaining := current - qty
	if remaining == 0 {
		delete(l.stock, sku)
	} else {
		l.stock[sku] = remaining
	}
	return remaining, true, nil
}

func (l *MemoryLedger) ListAll(ctx context.Context) (map[string]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make(map[string]int, len(l.stock))
	for sku, qty := range l.stock {
		snapshot[sku] = qty
	}
	return snapshot, nil
}
