package repository

import (
	"context"

	"github.com/suravi/checkout/internal/domain/model"
)

// AddressRepository reads saved delivery addresses.
type AddressRepository interface {
	GetByID(ctx context.Context, userID, addressID int64) (*model.Address, error)
}
