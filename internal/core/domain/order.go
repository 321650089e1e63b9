package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        string
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
