package repository

import (
	"context"

	"github.com/suravi/checkout/internal/domain/model"
)

// CartRepository reads the user's cart at the checkout boundary. Cart line
// deletion after finalization happens inside the order finalize transaction.
type CartRepository interface {
	// SelectedLines resolves the given cart item ids to lines joined with
	// product data. Missing ids simply do not appear in the result.
	SelectedLines(ctx context.Context, userID int64, itemIDs []int64) ([]model.CartLine, error)
}
