package port

import "context"

// InventoryLedger is the single source of truth for available quantity per
// SKU. Mutations are atomic per SKU; quantities never go negative.
type InventoryLedger interface {
	// Quantity returns the current quantity, 0 for unknown SKUs.
	Quantity(ctx context.Context, sku string) (int, error)

	// Add increases the quantity and returns the new value. Empty SKU or
	// non-positive qty is a silent no-op returning the current quantity.
	Add(ctx context.Context, sku string, qty int) (int, error)

	// Remove decreases the quantity, floored at 0, and returns the new
	// value. The entry is dropped when it reaches 0. Silent no-op on
	// invalid input, same as Add.
	Remove(ctx context.Context, sku string, qty int) (int, error)

	// Set forces the quantity; qty <= 0 deletes the SKU and returns 0.
	Set(ctx context.Context, sku string, qty int) (int, error)

	// Delete removes the SKU entirely, reporting whether it existed.
	Delete(ctx context.Context, sku string) (bool, error)

	// Reserve atomically checks and decrements stock in one step. When
	// stock covers qty it decrements and returns the remaining quantity
	// with ok=true; otherwise nothing changes and it returns the current
	// quantity with ok=false.
	Reserve(ctx context.Context, sku string, qty int) (available int, ok bool, err error)

	// ListAll returns a snapshot of all tracked SKUs. The snapshot does
	// not reflect later mutations.
	ListAll(ctx context.Context) (map[string]int, error)
}
