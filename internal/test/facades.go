package test

import (
	"context"
	"sync"
	"time"

	"github.com/suravi/checkout/internal/adapter/esewa"
	"github.com/suravi/checkout/internal/domain/model"
)

// AuthFacadeStub simulates authentication facade interactions.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (int64, error)
}

// Register returns token for successful registration scenarios.
func (s AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return "token", nil
}

// Authenticate returns token for successful authentication scenarios.
func (s AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return "token", nil
}

// ParseToken returns stored identifier for authenticated user.
func (s AuthFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return 1, nil
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn func(context.Context, int64, []int64, int64, string) (*model.Order, error)
	OrdersFn func(context.Context, int64) ([]model.Order, error)
	OrderFn  func(context.Context, int64, int64) (*model.Order, error)
	CancelFn func(context.Context, int64, int64, string) (*model.Order, error)
	OnHoldFn func(context.Context, int) ([]model.Order, error)
}

// CreateOrder delegates to override or returns a default pending draft.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, userID int64, itemIDs []int64, addressID int64, coupon string) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, userID, itemIDs, addressID, coupon)
	}
	return &model.Order{ID: 1, UserID: userID, Status: model.OrderStatusPendingPayment}, nil
}

// Orders returns predefined orders for given user.
func (s OrderFacadeStub) Orders(ctx context.Context, userID int64) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, userID)
	}
	return []model.Order{{ID: 1, UserID: userID}}, nil
}

// Order returns a single order honoring the ownership contract.
func (s OrderFacadeStub) Order(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, orderID, userID)
	}
	return &model.Order{ID: orderID, UserID: userID}, nil
}

// CancelOrder returns a cancelled order by default.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, orderID, userID, reason)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusCancelled}, nil
}

// OnHoldOrders returns predefined on-hold orders.
func (s OrderFacadeStub) OnHoldOrders(ctx context.Context, limit int) ([]model.Order, error) {
	if s.OnHoldFn != nil {
		return s.OnHoldFn(ctx, limit)
	}
	return nil, nil
}

// PaymentFacadeStub simulates payment endpoints behaviour.
type PaymentFacadeStub struct {
	InitiateFn func(context.Context, int64, int64, model.PaymentMethod) (*esewa.SignedForm, *model.Order, error)
	VerifyFn   func(context.Context, int64, int64) (*model.Order, error)
	CallbackFn func(context.Context, int64, float64) (string, error)
}

// InitiatePayment delegates to override or returns a default signed form.
func (s PaymentFacadeStub) InitiatePayment(ctx context.Context, userID, orderID int64, method model.PaymentMethod) (*esewa.SignedForm, *model.Order, error) {
	if s.InitiateFn != nil {
		return s.InitiateFn(ctx, userID, orderID, method)
	}
	order := &model.Order{ID: orderID, UserID: userID, PaymentMethod: method}
	if method == model.PaymentMethodCOD {
		order.Status = model.OrderStatusProcessing
		return nil, order, nil
	}
	return &esewa.SignedForm{GatewayURL: "https://gateway.test", Fields: map[string]string{}}, order, nil
}

// VerifyPayment delegates to override or returns a processing paid order.
func (s PaymentFacadeStub) VerifyPayment(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, userID, orderID)
	}
	return &model.Order{ID: orderID, UserID: userID, Status: model.OrderStatusProcessing, PaymentStatus: model.PaymentStatusPaid}, nil
}

// PaymentCallback delegates to override or redirects to a success page.
func (s PaymentFacadeStub) PaymentCallback(ctx context.Context, orderID int64, amount float64) (string, error) {
	if s.CallbackFn != nil {
		return s.CallbackFn(ctx, orderID, amount)
	}
	return "https://shop.test/payment/success", nil
}

// CheckoutFacadeStub aggregates facade dependencies for HTTP layer tests.
type CheckoutFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	PaymentFacadeStub
}

// SweepCall records one sweep invocation.
type SweepCall struct {
	OlderThan time.Duration
}

// SweepFacadeStub mimics the draft sweeper's view of the facade.
type SweepFacadeStub struct {
	mu        sync.Mutex
	StaleFn   func(context.Context, time.Duration) (int64, error)
	PurgeFn   func(context.Context, time.Duration) (int64, error)
	StaleRuns []SweepCall
	PurgeRuns []SweepCall
}

// CancelStaleDrafts records the call and delegates to the override.
func (s *SweepFacadeStub) CancelStaleDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	s.StaleRuns = append(s.StaleRuns, SweepCall{OlderThan: olderThan})
	s.mu.Unlock()
	if s.StaleFn != nil {
		return s.StaleFn(ctx, olderThan)
	}
	return 0, nil
}

// PurgeAbandonedDrafts records the call and delegates to the override.
func (s *SweepFacadeStub) PurgeAbandonedDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	s.PurgeRuns = append(s.PurgeRuns, SweepCall{OlderThan: olderThan})
	s.mu.Unlock()
	if s.PurgeFn != nil {
		return s.PurgeFn(ctx, olderThan)
	}
	return 0, nil
}

// StaleCount returns how many stale sweeps ran.
func (s *SweepFacadeStub) StaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.StaleRuns)
}

// PurgeCount returns how many purge sweeps ran.
func (s *SweepFacadeStub) PurgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.PurgeRuns)
}
