package repository

import (
	"context"

	"github.com/suravi/checkout/internal/domain/model"
)

// InventoryRepository is the inventory ledger. Reserve must be a single
// atomic conditional decrement with no read-then-write window.
type InventoryRepository interface {
	// Reserve decrements stock by quantity only if at least that much is
	// available for the exact unit; otherwise nothing changes and
	// ErrInsufficientStock is returned.
	Reserve(ctx context.Context, key model.StockKey, quantity int) error
	// Release is the unconditional inverse, used on cancellation.
	Release(ctx context.Context, key model.StockKey, quantity int) error
	Available(ctx context.Context, key model.StockKey) (int, error)
}
