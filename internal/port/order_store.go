package port

import (
	"context"

	"github.com/acme/orderdesk/internal/core/domain"
)

// OrderStore is keyed storage for order records, safe for concurrent use.
// Per-key operations are atomic; cross-key atomicity is not provided.
type OrderStore interface {
	// Create persists a new order. The id must not already exist.
	Create(ctx context.Context, order domain.Order) error

	// Get returns the order, or nil when the id is unknown.
	Get(ctx context.Context, id string) (*domain.Order, error)

	// Update replaces the sku/quantity/price of an existing order and
	// returns the updated record, or nil when the id is unknown.
	Update(ctx context.Context, order domain.Order) (*domain.Order, error)

	// Delete removes the order, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ListAll returns all orders in no particular order.
	ListAll(ctx context.Context) ([]domain.Order, error)
}
