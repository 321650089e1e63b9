package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/acme/orderdesk/internal/adapter/storage"
	"github.com/acme/orderdesk/internal/core/domain"
)

// staleReadStore reports every lookup as live regardless of deletions,
// modelling two requests that both saw the order before either finished.
// Deletes still go through the real store, so only one request can claim.
type staleReadStore struct {
	*storage.MemoryStore
	snapshot domain.Order
}

func (s *staleReadStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	o := s.snapshot
	return &o, nil
}

type captureNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *captureNotifier) Notify(ctx context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestFulfillment() (*FulfillmentService, *storage.MemoryLedger, *storage.MemoryStore, *captureNotifier) {
	ledger := storage.NewMemoryLedger()
	orders := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	svc := NewFulfillmentService(ledger, orders, notifier, zap.NewNop())
	return svc, ledger, orders, notifier
}

func TestCreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, notifier := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, err := svc.CreateOrder(ctx, "shirt-m", 2, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID == "" {
		t.Error("expected non-empty order id")
	}
	if order.SKU != "shirt-m" || order.Quantity != 2 {
		t.Errorf("unexpected order: %+v", order)
	}

	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 4 {
		t.Errorf("expected stock 4, got %d", qty)
	}

	persisted, _ := orders.Get(ctx, order.ID)
	if persisted == nil {
		t.Error("expected order to be persisted")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.count())
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, _ := newTestFulfillment()

	_, err := svc.CreateOrder(ctx, "shirt-s", 1, decimal.NewFromInt(5))

	var inventoryErr *InsufficientInventoryError
	if !errors.As(err, &inventoryErr) {
		t.Fatalf("expected InsufficientInventoryError, got: %v", err)
	}
	if inventoryErr.Available != 0 {
		t.Errorf("expected available 0, got %d", inventoryErr.Available)
	}

	// No partial effects.
	qty, _ := ledger.Quantity(ctx, "shirt-s")
	if qty != 0 {
		t.Errorf("expected stock unchanged, got %d", qty)
	}
	all, _ := orders.ListAll(ctx)
	if len(all) != 0 {
		t.Errorf("expected no orders, got %d", len(all))
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	cases := []struct {
		name     string
		sku      string
		quantity int
		price    decimal.Decimal
	}{
		{"empty sku", "", 1, decimal.NewFromInt(10)},
		{"zero quantity", "shirt-m", 0, decimal.NewFromInt(10)},
		{"negative quantity", "shirt-m", -1, decimal.NewFromInt(10)},
		{"zero price", "shirt-m", 1, decimal.Zero},
		{"negative price", "shirt-m", 1, decimal.NewFromInt(-5)},
	}

	for _, tc := range cases {
		_, err := svc.CreateOrder(ctx, tc.sku, tc.quantity, tc.price)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("%s: expected ValidationError, got: %v", tc.name, err)
		}
	}

	// Validation happens before any mutation.
	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 6 {
		t.Errorf("expected stock unchanged at 6, got %d", qty)
	}
}

func TestCreateOrder_ConcurrentNoOversell(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, _ := newTestFulfillment()

	initialStock := 20
	totalRequests := 50
	ledger.Set(ctx, "flash-item", initialStock)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, "flash-item", 1, decimal.NewFromInt(10))
			if err == nil {
				successCount.Add(1)
				return
			}
			var inventoryErr *InsufficientInventoryError
			if !errors.As(err, &inventoryErr) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}
	qty, _ := ledger.Quantity(ctx, "flash-item")
	if qty != 0 {
		t.Errorf("expected stock 0, got %d", qty)
	}
	all, _ := orders.ListAll(ctx)
	if len(all) != initialStock {
		t.Errorf("expected %d orders, got %d", initialStock, len(all))
	}
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, err := svc.CreateOrder(ctx, "shirt-m", 1, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateOrder(ctx, order.ID, "shirt-l", 2, decimal.NewFromInt(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.SKU != "shirt-l" || updated.Quantity != 2 {
		t.Errorf("unexpected order: %+v", updated)
	}

	// Update is a pure record replacement; inventory is untouched.
	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 5 {
		t.Errorf("expected stock 5, got %d", qty)
	}
	qty, _ = ledger.Quantity(ctx, "shirt-l")
	if qty != 0 {
		t.Errorf("expected stock 0, got %d", qty)
	}
}

func TestUpdateOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestFulfillment()

	_, err := svc.UpdateOrder(ctx, "nope", "shirt-m", 1, decimal.NewFromInt(10))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestCancelOrder_NoRestock(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 2, decimal.NewFromInt(10))

	cancelled, err := svc.CancelOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cancelled {
		t.Error("expected cancellation to succeed")
	}

	got, _ := orders.Get(ctx, order.ID)
	if got != nil {
		t.Error("expected order to be gone")
	}

	// Cancellation does not restock.
	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 4 {
		t.Errorf("expected stock 4, got %d", qty)
	}
}

func TestCancelOrder_MissingIsNotAnError(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestFulfillment()

	cancelled, err := svc.CancelOrder(ctx, "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled {
		t.Error("expected false for missing order")
	}
}

func TestProcessRefund_RestoresStockAndDeletesOrder(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, notifier := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 2, decimal.NewFromInt(10))

	summary, err := svc.ProcessRefund(ctx, order.ID, order.SKU, order.Quantity, order.UnitPrice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary == "" {
		t.Error("expected non-empty summary")
	}

	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 6 {
		t.Errorf("expected stock restored to 6, got %d", qty)
	}
	got, _ := orders.Get(ctx, order.ID)
	if got != nil {
		t.Error("expected refunded order to be gone")
	}
	if notifier.count() != 2 {
		t.Errorf("expected 2 notifications, got %d", notifier.count())
	}
}

func TestProcessRefund_Twice(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 1, decimal.NewFromInt(10))

	if _, err := svc.ProcessRefund(ctx, order.ID, order.SKU, order.Quantity, order.UnitPrice); err != nil {
		t.Fatalf("first refund failed: %v", err)
	}

	_, err := svc.ProcessRefund(ctx, order.ID, order.SKU, order.Quantity, order.UnitPrice)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on second refund, got: %v", err)
	}

	// Second refund must not restock again.
	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 6 {
		t.Errorf("expected stock 6, got %d", qty)
	}
}

func TestProcessRefund_DuplicateRequestsClaimOnce(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewMemoryLedger()
	order := domain.Order{ID: "ord-1", SKU: "shirt-m", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}
	store := &staleReadStore{MemoryStore: storage.NewMemoryStore(), snapshot: order}
	store.MemoryStore.Create(ctx, order)
	svc := NewFulfillmentService(ledger, store, nil, zap.NewNop())

	if _, err := svc.ProcessRefund(ctx, "ord-1", "shirt-m", 2, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("first refund failed: %v", err)
	}

	_, err := svc.ProcessRefund(ctx, "ord-1", "shirt-m", 2, decimal.NewFromInt(10))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on duplicate refund, got: %v", err)
	}

	// The 2-unit order restocks exactly 2 units in total.
	if qty, _ := ledger.Quantity(ctx, "shirt-m"); qty != 2 {
		t.Errorf("expected exactly 2 units restocked, got %d", qty)
	}
}

func TestProcessRefund_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 2, decimal.NewFromInt(10))

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProcessRefund(ctx, order.ID, order.SKU, order.Quantity, order.UnitPrice)
			if err == nil {
				successCount.Add(1)
				return
			}
			if !errors.Is(err, ErrOrderNotFound) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("expected exactly one refund to succeed, got %d", successCount.Load())
	}
	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 6 {
		t.Errorf("expected stock back at 6, got %d", qty)
	}
}

func TestProcessRefund_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestFulfillment()

	var validationErr *ValidationError

	_, err := svc.ProcessRefund(ctx, "ord-1", "", 1, decimal.NewFromInt(10))
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for empty sku, got: %v", err)
	}
	_, err = svc.ProcessRefund(ctx, "ord-1", "shirt-m", 0, decimal.NewFromInt(10))
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for zero quantity, got: %v", err)
	}
}

func TestProcessReplacement_SwapsStock(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 1, decimal.NewFromInt(10))
	ledger.Set(ctx, "shirt-l", 3)

	replacement, err := svc.ProcessReplacement(ctx, order.ID, "shirt-m", "shirt-l", 1, decimal.NewFromInt(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replacement.SKU != "shirt-l" {
		t.Errorf("expected replacement SKU shirt-l, got %s", replacement.SKU)
	}
	if replacement.ID == order.ID {
		t.Error("expected replacement to have a fresh id")
	}

	// Original SKU restocked, replacement SKU reserved.
	qty, _ := ledger.Quantity(ctx, "shirt-m")
	if qty != 6 {
		t.Errorf("expected shirt-m back at 6, got %d", qty)
	}
	qty, _ = ledger.Quantity(ctx, "shirt-l")
	if qty != 2 {
		t.Errorf("expected shirt-l at 2, got %d", qty)
	}

	persisted, _ := orders.Get(ctx, replacement.ID)
	if persisted == nil {
		t.Error("expected replacement order to be persisted")
	}
}

func TestProcessReplacement_DeletesOriginal(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 1, decimal.NewFromInt(10))

	if _, err := svc.ProcessReplacement(ctx, order.ID, "shirt-m", "shirt-m", 1, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := orders.Get(ctx, order.ID)
	if got != nil {
		t.Error("expected original order to be deleted after replacement")
	}
	all, _ := orders.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected exactly one live order, got %d", len(all))
	}
}

func TestProcessReplacement_DuplicateRequestsClaimOnce(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewMemoryLedger()
	order := domain.Order{ID: "ord-1", SKU: "shirt-m", Quantity: 2, UnitPrice: decimal.NewFromInt(10)}
	store := &staleReadStore{MemoryStore: storage.NewMemoryStore(), snapshot: order}
	store.MemoryStore.Create(ctx, order)
	ledger.Set(ctx, "shirt-l", 5)
	svc := NewFulfillmentService(ledger, store, nil, zap.NewNop())

	if _, err := svc.ProcessReplacement(ctx, "ord-1", "shirt-m", "shirt-l", 2, decimal.NewFromInt(12)); err != nil {
		t.Fatalf("first replacement failed: %v", err)
	}

	_, err := svc.ProcessReplacement(ctx, "ord-1", "shirt-m", "shirt-l", 2, decimal.NewFromInt(12))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound on duplicate replacement, got: %v", err)
	}

	// One restock of the original SKU, one reservation of the new SKU,
	// one live replacement order.
	if qty, _ := ledger.Quantity(ctx, "shirt-m"); qty != 2 {
		t.Errorf("expected shirt-m at 2, got %d", qty)
	}
	if qty, _ := ledger.Quantity(ctx, "shirt-l"); qty != 3 {
		t.Errorf("expected shirt-l at 3, got %d", qty)
	}
	all, _ := store.MemoryStore.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected exactly one live order, got %d", len(all))
	}
}

func TestProcessReplacement_MissingOrder(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-l", 3)

	_, err := svc.ProcessReplacement(ctx, "nope", "shirt-m", "shirt-l", 1, decimal.NewFromInt(12))
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}

	// A failed claim must not move stock.
	if qty, _ := ledger.Quantity(ctx, "shirt-l"); qty != 3 {
		t.Errorf("expected shirt-l untouched at 3, got %d", qty)
	}
}

func TestProcessReplacement_SameSKUNetsToZero(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 1, decimal.NewFromInt(10))
	before, _ := ledger.Quantity(ctx, "shirt-m")

	if _, err := svc.ProcessReplacement(ctx, order.ID, "shirt-m", "shirt-m", 1, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, _ := ledger.Quantity(ctx, "shirt-m")
	if after != before {
		t.Errorf("expected same-SKU replacement to leave stock at %d, got %d", before, after)
	}
}

func TestProcessReplacement_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	svc, ledger, orders, _ := newTestFulfillment()
	ledger.Set(ctx, "shirt-m", 6)

	order, _ := svc.CreateOrder(ctx, "shirt-m", 1, decimal.NewFromInt(10))
	before, _ := ledger.ListAll(ctx)

	_, err := svc.ProcessReplacement(ctx, order.ID, "shirt-m", "shirt-xl", 1, decimal.NewFromInt(14))

	var inventoryErr *InsufficientInventoryError
	if !errors.As(err, &inventoryErr) {
		t.Fatalf("expected InsufficientInventoryError, got: %v", err)
	}
	if inventoryErr.Available != 0 {
		t.Errorf("expected available 0, got %d", inventoryErr.Available)
	}

	// No ledger mutation and the original order survives.
	after, _ := ledger.ListAll(ctx)
	if len(after) != len(before) || after["shirt-m"] != before["shirt-m"] {
		t.Errorf("expected ledger unchanged, before=%v after=%v", before, after)
	}
	got, _ := orders.Get(ctx, order.ID)
	if got == nil {
		t.Error("expected original order to survive failed replacement")
	}
}

func TestProcessReplacement_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestFulfillment()

	var validationErr *ValidationError

	_, err := svc.ProcessReplacement(ctx, "ord-1", "", "shirt-l", 1, decimal.NewFromInt(10))
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for empty original sku, got: %v", err)
	}
	_, err = svc.ProcessReplacement(ctx, "ord-1", "shirt-m", "", 1, decimal.NewFromInt(10))
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for empty new sku, got: %v", err)
	}
	_, err = svc.ProcessReplacement(ctx, "ord-1", "shirt-m", "shirt-l", 0, decimal.NewFromInt(10))
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError for zero quantity, got: %v", err)
	}
}
