package app

import (
	"context"
	"time"

	"github.com/suravi/checkout/internal/adapter/esewa"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/usecase"
)

// CheckoutFacade is the single application surface consumed by the HTTP
// handlers and background workers.
type CheckoutFacade struct {
	auth     *usecase.AuthUseCase
	orders   *usecase.OrderUseCase
	payments *usecase.PaymentUseCase
}

func NewCheckoutFacade(auth *usecase.AuthUseCase, orders *usecase.OrderUseCase, payments *usecase.PaymentUseCase) *CheckoutFacade {
	return &CheckoutFacade{auth: auth, orders: orders, payments: payments}
}

func (f *CheckoutFacade) Register(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Register(ctx, login, password)
	return token, err
}

func (f *CheckoutFacade) Authenticate(ctx context.Context, login, password string) (string, error) {
	_, token, err := f.auth.Authenticate(ctx, login, password)
	return token, err
}

func (f *CheckoutFacade) ParseToken(token string) (int64, error) {
	return f.auth.ParseToken(token)
}

func (f *CheckoutFacade) CreateOrder(ctx context.Context, userID int64, itemIDs []int64, addressID int64, coupon string) (*model.Order, error) {
	return f.orders.CreateDraft(ctx, userID, itemIDs, addressID, coupon)
}

func (f *CheckoutFacade) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	return f.orders.ListByUser(ctx, userID)
}

func (f *CheckoutFacade) Order(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	return f.orders.Get(ctx, orderID, userID)
}

func (f *CheckoutFacade) CancelOrder(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error) {
	return f.orders.Cancel(ctx, orderID, userID, reason)
}

func (f *CheckoutFacade) OnHoldOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return f.orders.OnHold(ctx, limit)
}

func (f *CheckoutFacade) InitiatePayment(ctx context.Context, userID, orderID int64, method model.PaymentMethod) (*esewa.SignedForm, *model.Order, error) {
	return f.payments.Initiate(ctx, userID, orderID, method)
}

func (f *CheckoutFacade) VerifyPayment(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	return f.payments.VerifyClient(ctx, userID, orderID)
}

func (f *CheckoutFacade) PaymentCallback(ctx context.Context, orderID int64, amount float64) (string, error) {
	return f.payments.VerifyCallback(ctx, orderID, amount)
}

func (f *CheckoutFacade) CancelStaleDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	return f.orders.CancelStaleDrafts(ctx, olderThan)
}

func (f *CheckoutFacade) PurgeAbandonedDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	return f.orders.PurgeAbandonedDrafts(ctx, olderThan)
}
