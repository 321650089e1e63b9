package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/acme/orderdesk/internal/core/domain"
	"github.com/acme/orderdesk/internal/port"
)

// FulfillmentService implements the compound order operations spanning the
// inventory ledger and the order store. It holds no state between calls;
// all sharing happens through the injected ledger and store.
type FulfillmentService struct {
	ledger   port.InventoryLedger
	orders   port.OrderStore
	notifier port.Notifier
	logger   *zap.Logger
}

func NewFulfillmentService(ledger port.InventoryLedger, orders port.OrderStore, notifier port.Notifier, logger *zap.Logger) *FulfillmentService {
	return &FulfillmentService{
		ledger:   ledger,
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}
}

func validateOrderData(sku string, quantity int, price decimal.Decimal) error {
	if sku == "" {
		return &ValidationError{Reason: "SKU is required"}
	}
	if quantity <= 0 {
		return &ValidationError{Reason: "quantity must be positive"}
	}
	if price.Sign() <= 0 {
		return &ValidationError{Reason: "price must be positive"}
	}
	return nil
}

// CreateOrder reserves stock and persists a new order. The reservation is a
// single atomic check-and-decrement on the ledger, so two concurrent
// creations can never both succeed on the last unit.
func (s *FulfillmentService) CreateOrder(ctx context.Context, sku string, quantity int, price decimal.Decimal) (domain.Order, error) {
	if err := validateOrderData(sku, quantity, price); err != nil {
		return domain.Order{}, err
	}

	available, ok, err := s.ledger.Reserve(ctx, sku, quantity)
	if err != nil {
		return domain.Order{}, fmt.Errorf("reserve stock: %w", err)
	}
	if !ok {
		return domain.Order{}, &InsufficientInventoryError{Available: available}
	}

	now := time.Now()
	order := domain.Order{
		ID:        uuid.NewString(),
		SKU:       sku,
		Quantity:  quantity,
		UnitPrice: price,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// Return the reservation before reporting failure.
		if _, rbErr := s.ledger.Add(ctx, sku, quantity); rbErr != nil {
			s.logger.Error("failed to restore stock after order persist failure",
				zap.String("sku", sku),
				zap.Int("quantity", quantity),
				zap.Error(rbErr))
		}
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	s.notify(ctx, fmt.Sprintf("Order %s created successfully for %d units of %s at $%s each",
		order.ID, quantity, sku, price.String()))

	return order, nil
}

func (s *FulfillmentService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *FulfillmentService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAll(ctx)
}

// UpdateOrder replaces the sku/quantity/price of an existing order. It does
// not touch inventory.
func (s *FulfillmentService) UpdateOrder(ctx context.Context, id, sku string, quantity int, price decimal.Decimal) (domain.Order, error) {
	if err := validateOrderData(sku, quantity, price); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.orders.Update(ctx, domain.Order{
		ID:        id,
		SKU:       sku,
		Quantity:  quantity,
		UnitPrice: price,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}
	if updated == nil {
		return domain.Order{}, ErrOrderNotFound
	}
	return *updated, nil
}

// CancelOrder deletes the order without restocking. Restocking only happens
// through the refund path; cancellation is an administrative action.
func (s *FulfillmentService) CancelOrder(ctx context.Context, id string) (bool, error) {
	deleted, err := s.orders.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	if deleted {
		s.logger.Info("order cancelled", zap.String("order_id", id))
	}
	return deleted, nil
}

// ProcessRefund returns the order's reserved quantity to the ledger and
// deletes the order. Refunds are terminal: the order ceases to exist.
func (s *FulfillmentService) ProcessRefund(ctx context.Context, orderID, sku string, quantity int, price decimal.Decimal) (string, error) {
	if sku == "" {
		return "", &ValidationError{Reason: "SKU is required"}
	}
	if quantity <= 0 {
		return "", &ValidationError{Reason: "quantity must be positive"}
	}

	// Deleting the order is the claim: the store's per-key delete admits a
	// single winner, so a duplicate refund finds no order and cannot restock.
	deleted, err := s.orders.Delete(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("delete order: %w", err)
	}
	if !deleted {
		return "", ErrOrderNotFound
	}

	if _, err := s.ledger.Add(ctx, sku, quantity); err != nil {
		return "", fmt.Errorf("restock: %w", err)
	}

	s.logger.Info("refund issued", zap.String("order_id", orderID), zap.String("sku", sku))
	s.notify(ctx, fmt.Sprintf("Refund processed for order %s. %d units of %s returned to inventory",
		orderID, quantity, sku))

	return "Refund processed successfully", nil
}

// ProcessReplacement exchanges an existing order for a fresh one on the
// replacement SKU. The original order is claimed by deletion before any
// ledger movement, so duplicate replacement requests admit a single winner;
// a rejected or failed replacement restores the claimed order and leaves
// the ledger untouched.
func (s *FulfillmentService) ProcessReplacement(ctx context.Context, orderID, originalSKU, newSKU string, quantity int, newPrice decimal.Decimal) (domain.Order, error) {
	if originalSKU == "" {
		return domain.Order{}, &ValidationError{Reason: "original SKU is required"}
	}
	if newSKU == "" {
		return domain.Order{}, &ValidationError{Reason: "new SKU is required"}
	}
	if quantity <= 0 {
		return domain.Order{}, &ValidationError{Reason: "quantity must be positive"}
	}

	original, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("look up order: %w", err)
	}
	if original == nil {
		return domain.Order{}, ErrOrderNotFound
	}

	// The claim: per-key delete admits one winner, so a duplicate request
	// loses here instead of double-restocking the original SKU.
	claimed, err := s.orders.Delete(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("delete order: %w", err)
	}
	if !claimed {
		return domain.Order{}, ErrOrderNotFound
	}

	restoreOriginal := func() {
		if rbErr := s.orders.Create(ctx, *original); rbErr != nil {
			s.logger.Error("failed to restore order after replacement failure",
				zap.String("order_id", orderID), zap.Error(rbErr))
		}
	}

	available, ok, err := s.ledger.Reserve(ctx, newSKU, quantity)
	if err != nil {
		restoreOriginal()
		return domain.Order{}, fmt.Errorf("reserve replacement stock: %w", err)
	}
	if !ok {
		restoreOriginal()
		return domain.Order{}, &InsufficientInventoryError{Available: available}
	}

	if _, err := s.ledger.Add(ctx, originalSKU, quantity); err != nil {
		if _, rbErr := s.ledger.Add(ctx, newSKU, quantity); rbErr != nil {
			s.logger.Error("failed to restore reserved stock after restock failure",
				zap.String("sku", newSKU), zap.Error(rbErr))
		}
		restoreOriginal()
		return domain.Order{}, fmt.Errorf("restock original: %w", err)
	}

	now := time.Now()
	replacement := domain.Order{
		ID:        uuid.NewString(),
		SKU:       newSKU,
		Quantity:  quantity,
		UnitPrice: newPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, replacement); err != nil {
		// Undo both ledger movements before restoring the claimed order.
		if _, rbErr := s.ledger.Remove(ctx, originalSKU, quantity); rbErr != nil {
			s.logger.Error("failed to undo restock after replacement persist failure",
				zap.String("sku", originalSKU), zap.Error(rbErr))
		}
		if _, rbErr := s.ledger.Add(ctx, newSKU, quantity); rbErr != nil {
			s.logger.Error("failed to restore reserved stock after replacement persist failure",
				zap.String("sku", newSKU), zap.Error(rbErr))
		}
		restoreOriginal()
		return domain.Order{}, fmt.Errorf("persist replacement order: %w", err)
	}

	s.logger.Info("replacement order created",
		zap.String("original_order_id", orderID),
		zap.String("replacement_order_id", replacement.ID))
	s.notify(ctx, fmt.Sprintf("Replacement order created for %s. Exchanging %d units of %s for %s",
		orderID, quantity, originalSKU, newSKU))

	return replacement, nil
}

// notify delivers the summary to the customer notifier. Delivery problems
// are logged, never surfaced: a completed operation does not fail because
// the notification could not be sent.
func (s *FulfillmentService) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.logger.Warn("customer notification failed", zap.Error(err))
	}
}
