package service

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound signals that a referenced order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError reports malformed input. It is always raised before any
// mutation, so a failed operation has no partial effects.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// InsufficientInventoryError reports that the requested quantity exceeds
// available stock. Available carries the actual quantity for caller
// messaging.
type InsufficientInventoryError struct {
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory, %d available", e.Available)
}
