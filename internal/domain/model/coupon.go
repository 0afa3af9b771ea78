package model

import "time"

// CouponType distinguishes percentage and flat discounts.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon is a discount code. Read-only from the checkout flow.
type Coupon struct {
	ID          int64
	Code        string
	Type        CouponType
	Value       float64
	MinPurchase float64
	MaxDiscount *float64
	Active      bool
	ExpiresAt   *time.Time
}
