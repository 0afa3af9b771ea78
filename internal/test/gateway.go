package test

import (
	"context"
	"sync"

	"github.com/suravi/checkout/internal/adapter/esewa"
	"github.com/suravi/checkout/internal/adapter/notify"
	"github.com/suravi/checkout/internal/domain/model"
)

// GatewayStub simulates the payment gateway client.
type GatewayStub struct {
	FormFn   func(*model.Order) esewa.SignedForm
	StatusFn func(context.Context, string, float64) (*model.GatewayStatus, error)
}

// PaymentForm delegates to override or returns a minimal signed form.
func (s GatewayStub) PaymentForm(order *model.Order) esewa.SignedForm {
	if s.FormFn != nil {
		return s.FormFn(order)
	}
	return esewa.SignedForm{
		GatewayURL: "https://gateway.test/api/epay/main/v2/form",
		Fields:     map[string]string{"transaction_uuid": order.GatewayRef},
	}
}

// CheckStatus delegates to override or reports the transaction complete.
func (s GatewayStub) CheckStatus(ctx context.Context, transactionUUID string, totalAmount float64) (*model.GatewayStatus, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx, transactionUUID, totalAmount)
	}
	return &model.GatewayStatus{
		TransactionUUID: transactionUUID,
		TotalAmount:     totalAmount,
		State:           model.GatewayStateComplete,
		RefID:           "ref-stub",
	}, nil
}

// PublisherStub records published confirmation events.
type PublisherStub struct {
	mu     sync.Mutex
	Events []notify.OrderConfirmed
	Err    error
	Closed bool
}

// Publish stores the event unless an error is configured.
func (s *PublisherStub) Publish(ctx context.Context, event notify.OrderConfirmed) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, event)
	return nil
}

// Close marks the publisher closed.
func (s *PublisherStub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Published returns a snapshot of recorded events.
func (s *PublisherStub) Published() []notify.OrderConfirmed {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.OrderConfirmed, len(s.Events))
	copy(out, s.Events)
	return out
}

// NotifierStub records orders handed to the confirmation notifier.
type NotifierStub struct {
	mu     sync.Mutex
	Orders []*model.Order
}

// OrderConfirmed stores the order.
func (s *NotifierStub) OrderConfirmed(order *model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Orders = append(s.Orders, order)
}

// Confirmed returns a snapshot of recorded orders.
func (s *NotifierStub) Confirmed() []*model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Order, len(s.Orders))
	copy(out, s.Orders)
	return out
}

var _ esewa.Client = GatewayStub{}
var _ notify.Publisher = (*PublisherStub)(nil)
