package repository

import (
	"context"
	"time"

	"github.com/suravi/checkout/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
//
// Finalize and Cancel are transactional: they lock the order row, so two
// concurrent calls for the same order serialize and only one observes the
// pre-transition status.
type OrderRepository interface {
	// CreateDraft persists the order with its item and address snapshots and
	// returns it with identity and creation time assigned.
	CreateDraft(ctx context.Context, order *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOnHold(ctx context.Context, limit int) ([]model.Order, error)

	// CancelPendingDrafts cancels every pending_payment order of the user and
	// returns how many were cancelled. Used for draft supersession.
	CancelPendingDrafts(ctx context.Context, userID int64, reason string) (int64, error)

	SetPaymentMethod(ctx context.Context, orderID int64, method model.PaymentMethod) error
	SetGatewayRef(ctx context.Context, orderID int64, ref string) error

	// MarkPaid conditionally transitions payment status pending -> paid and
	// records the gateway transaction reference. Returns false without
	// mutation when the order was already paid.
	MarkPaid(ctx context.Context, orderID int64, method model.PaymentMethod, transactionRef string) (bool, error)
	MarkPaymentFailed(ctx context.Context, orderID int64) error

	// Finalize commits stock decrements, purges matching cart lines and moves
	// the order to processing. On a lost stock race the order is committed as
	// on_hold (earlier decrements kept) and ErrInsufficientStock is returned.
	// Returns ErrOrderNotPending when the order is not in pending_payment.
	Finalize(ctx context.Context, orderID int64) (*model.Order, error)

	// Cancel releases reserved stock for stock-linked orders and marks the
	// order cancelled; a paid order moves to refund_initiated. userID 0 skips
	// the ownership check (system-initiated cancellation).
	Cancel(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error)

	// CancelStaleDrafts cancels pending_payment orders created before the
	// cutoff; PurgeCancelledDrafts hard-deletes cancelled, never-paid orders
	// created before the cutoff. Both return the affected row count.
	CancelStaleDrafts(ctx context.Context, cutoff time.Time, reason string) (int64, error)
	PurgeCancelledDrafts(ctx context.Context, cutoff time.Time) (int64, error)
}
