package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/domain/repository"
	"github.com/suravi/checkout/internal/metrics"
)

const (
	supersededReason = "superseded by newer draft"
	staleDraftReason = "abandoned at checkout"
)

// ConfirmationNotifier accepts a confirmed order for asynchronous delivery
// to downstream consumers. Implementations must not block.
type ConfirmationNotifier interface {
	OrderConfirmed(order *model.Order)
}

// OrderUseCase encapsulates the draft/finalize/cancel order lifecycle.
type OrderUseCase struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	addresses repository.AddressRepository
	pricing   *PricingEngine
	notifier  ConfirmationNotifier
	logger    *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	addresses repository.AddressRepository,
	pricing *PricingEngine,
	notifier ConfirmationNotifier,
	logger *slog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		pricing:   pricing,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateDraft builds a priced draft order from selected cart lines. Any
// previous pending draft of the user is cancelled first, so at most one
// draft awaits payment at a time. Stock is validated but not reserved.
func (u *OrderUseCase) CreateDraft(ctx context.Context, userID int64, itemIDs []int64, addressID int64, couponCode string) (*model.Order, error) {
	address, err := u.addresses.GetByID(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrInvalidAddress
		}
		return nil, err
	}

	unique := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil, domainErrors.ErrItemsNotFound
	}

	lines, err := u.carts.SelectedLines(ctx, userID, itemIDs)
	if err != nil {
		return nil, err
	}
	if len(lines) != len(unique) {
		return nil, domainErrors.ErrItemsNotFound
	}

	breakdown, err := u.pricing.Quote(ctx, lines, couponCode)
	if err != nil {
		return nil, err
	}

	superseded, err := u.orders.CancelPendingDrafts(ctx, userID, supersededReason)
	if err != nil {
		return nil, err
	}
	if superseded > 0 {
		u.logger.Info("pending drafts superseded",
			slog.Int64("user_id", userID),
			slog.Int64("count", superseded),
		)
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, model.OrderItem{
			ProductID:     l.ProductID,
			Name:          l.Name,
			Slug:          l.Slug,
			Variant:       l.Variant,
			Size:          l.Size,
			Image:         l.Image,
			Price:         l.Price,
			OriginalPrice: l.OriginalPrice,
			Quantity:      l.Quantity,
		})
	}

	order := &model.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: *address,
		ItemsPrice:      breakdown.ItemsPrice,
		DiscountOnMRP:   breakdown.DiscountOnMRP,
		CouponCode:      breakdown.CouponCode,
		CouponDiscount:  breakdown.CouponDiscount,
		ShippingPrice:   breakdown.ShippingPrice,
		TotalPrice:      breakdown.TotalPrice,
	}

	return u.orders.CreateDraft(ctx, order)
}

// Finalize commits stock for a settled order and moves it to processing.
// On a lost stock race the order lands on hold and the insufficient stock
// error propagates; everything already committed stays committed.
func (u *OrderUseCase) Finalize(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := u.orders.Finalize(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInsufficientStock) {
			metrics.RecordOrderOnHold()
			u.logger.Warn("order parked on hold",
				slog.Int64("order_id", orderID),
				slog.String("reason", order.CancellationReason),
			)
			return order, err
		}
		return nil, err
	}

	metrics.RecordOrderFinalized()
	if u.notifier != nil {
		u.notifier.OrderConfirmed(order)
	}
	return order, nil
}

// Cancel cancels the order on behalf of its owner.
func (u *OrderUseCase) Cancel(ctx context.Context, orderID, userID int64, reason string) (*model.Order, error) {
	return u.orders.Cancel(ctx, orderID, userID, reason)
}

// Get returns the order, enforcing ownership unless userID is zero.
func (u *OrderUseCase) Get(ctx context.Context, orderID, userID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if userID != 0 && order.UserID != userID {
		return nil, domainErrors.ErrNotOwner
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return u.orders.ListByUser(ctx, userID)
}

// OnHold returns orders awaiting manual stock resolution.
func (u *OrderUseCase) OnHold(ctx context.Context, limit int) ([]model.Order, error) {
	return u.orders.ListOnHold(ctx, limit)
}

// CancelStaleDrafts cancels pending drafts older than the given age.
func (u *OrderUseCase) CancelStaleDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	return u.orders.CancelStaleDrafts(ctx, time.Now().Add(-olderThan), staleDraftReason)
}

// PurgeAbandonedDrafts hard-deletes cancelled, never-paid drafts older than
// the given age.
func (u *OrderUseCase) PurgeAbandonedDrafts(ctx context.Context, olderThan time.Duration) (int64, error) {
	return u.orders.PurgeCancelledDrafts(ctx, time.Now().Add(-olderThan))
}
