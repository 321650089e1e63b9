package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/acme/orderdesk/internal/core/domain"
)

// MySQLStore is an OrderStore backed by MySQL.
//
// Schema:
//
//	CREATE TABLE orders (
//	    id         VARCHAR(64) PRIMARY KEY,
//	    sku        VARCHAR(64) NOT NULL,
//	    quantity   INT NOT NULL,
//	    unit_price DECIMAL(12,2) NOT NULL,
//	    created_at DATETIME NOT NULL,
//	    updated_at DATETIME NOT NULL
//	)
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (m *MySQLStore) Create(ctx context.Context, order domain.Order) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO orders (id, sku, quantity, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.SKU, order.Quantity, order.UnitPrice,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (m *MySQLStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, sku, quantity, unit_price, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.SKU, &order.Quantity, &order.UnitPrice, &order.CreatedAt, &order.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (m *MySQLStore) Update(ctx context.Context, order domain.Order) (*domain.Order, error) {
	order.UpdatedAt = time.Now()

	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET sku = ?, quantity = ?, unit_price = ?, updated_at = ?
		WHERE id = ?`,
		order.SKU, order.Quantity, order.UnitPrice, order.UpdatedAt, order.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	// Without clientFoundRows in the DSN, RowsAffected is 0 both when no
	// row matched and when the update changed nothing. Re-read instead of
	// trusting the count; Get reports a missing order as nil.
	if _, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return m.Get(ctx, order.ID)
}

func (m *MySQLStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sku, quantity, unit_price, created_at, updated_at
		FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.SKU, &order.Quantity, &order.UnitPrice, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}
