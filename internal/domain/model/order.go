package model

import "time"

// OrderStatus describes the order lifecycle.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusOnHold         OrderStatus = "on_hold"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
)

// PaymentStatus describes settlement state of an order.
type PaymentStatus string

const (
	PaymentStatusPending         PaymentStatus = "pending"
	PaymentStatusPaid            PaymentStatus = "paid"
	PaymentStatusFailed          PaymentStatus = "failed"
	PaymentStatusRefundInitiated PaymentStatus = "refund_initiated"
	PaymentStatusRefunded        PaymentStatus = "refunded"
)

// PaymentMethod identifies how the buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodPending PaymentMethod = "pending"
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodEsewa   PaymentMethod = "esewa"
)

// OrderItem is an immutable snapshot of a cart line taken at draft time.
// It is never re-derived from live product data.
type OrderItem struct {
	ProductID     int64
	Name          string
	Slug          string
	Variant       string
	Size          string
	Image         string
	Price         float64
	OriginalPrice float64
	Quantity      int
}

// Key returns the inventory unit this item draws from.
func (i OrderItem) Key() StockKey {
	return StockKey{ProductID: i.ProductID, Variant: i.Variant, Size: i.Size}
}

// Order is the durable record of a checkout. Price fields obey
// TotalPrice == ItemsPrice - CouponDiscount + ShippingPrice.
type Order struct {
	ID                 int64
	UserID             int64
	Items              []OrderItem
	ShippingAddress    Address
	ItemsPrice         float64
	DiscountOnMRP      float64
	CouponCode         string
	CouponDiscount     float64
	ShippingPrice      float64
	TotalPrice         float64
	PaymentMethod      PaymentMethod
	PaymentStatus      PaymentStatus
	Status             OrderStatus
	GatewayRef         string
	TransactionRef     string
	CancellationReason string
	CreatedAt          time.Time
	PaidAt             *time.Time
	CancelledAt        *time.Time
	DeliveredAt        *time.Time
}
