package model

// PriceBreakdown is the pricing engine output for a cart snapshot.
type PriceBreakdown struct {
	ItemsPrice     float64
	DiscountOnMRP  float64
	CouponCode     string
	CouponDiscount float64
	ShippingPrice  float64
	TotalPrice     float64
}
