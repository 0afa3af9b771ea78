package repository

import (
	"context"

	"github.com/suravi/checkout/internal/domain/model"
)

// CouponRepository looks up active coupons by normalized code.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}
