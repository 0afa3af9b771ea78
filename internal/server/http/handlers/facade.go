package handlers

import (
	"context"

	"github.com/suravi/checkout/internal/adapter/esewa"
	"github.com/suravi/checkout/internal/domain/model"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, login, password string) (string, error)
	Authenticate(ctx context.Context, login, password string) (string, error)
	ParseToken(token string) (int64, error)
}

// OrderFacade encapsulates order operations exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, userID int64, itemIDs []int64, addressID int64, coupon string) (*model.Order, error)
	Orders(ctx context.Context, userID int64) ([]model.Order, error)
	Order(ctx context.Context, orderID, userID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error)
	OnHoldOrders(ctx context.Context, limit int) ([]model.Order, error)
}

// PaymentFacade provides payment initiation and verification.
type PaymentFacade interface {
	InitiatePayment(ctx context.Context, userID, orderID int64, method model.PaymentMethod) (*esewa.SignedForm, *model.Order, error)
	VerifyPayment(ctx context.Context, userID, orderID int64) (*model.Order, error)
	PaymentCallback(ctx context.Context, orderID int64, amount float64) (string, error)
}

// CheckoutFacade aggregates the full set of operations used across handlers.
type CheckoutFacade interface {
	AuthFacade
	OrderFacade
	PaymentFacade
}
