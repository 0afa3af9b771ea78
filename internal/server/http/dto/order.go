package dto

import "time"

// CreateOrderRequest selects cart items and a delivery address for a new draft.
type CreateOrderRequest struct {
	ItemIDs    []int64 `json:"item_ids"`
	AddressID  int64   `json:"address_id"`
	CouponCode string  `json:"coupon_code"`
}

// CancelOrderRequest carries an optional cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderItemResponse is a snapshot line of an order.
type OrderItemResponse struct {
	ProductID     int64   `json:"product_id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	Variant       string  `json:"variant"`
	Size          string  `json:"size"`
	Image         string  `json:"image,omitempty"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Quantity      int     `json:"quantity"`
}

// AddressResponse is the delivery address snapshot of an order.
type AddressResponse struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postal_code,omitempty"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID                 int64               `json:"id"`
	Items              []OrderItemResponse `json:"items"`
	ShippingAddress    AddressResponse     `json:"shipping_address"`
	ItemsPrice         float64             `json:"items_price"`
	DiscountOnMRP      float64             `json:"discount_on_mrp"`
	CouponCode         string              `json:"coupon_code,omitempty"`
	CouponDiscount     float64             `json:"coupon_discount"`
	ShippingPrice      float64             `json:"shipping_price"`
	TotalPrice         float64             `json:"total_price"`
	PaymentMethod      string              `json:"payment_method"`
	PaymentStatus      string              `json:"payment_status"`
	Status             string              `json:"status"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	PaidAt             *time.Time          `json:"paid_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
}
