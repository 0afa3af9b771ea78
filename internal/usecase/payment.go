package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/suravi/checkout/internal/adapter/esewa"
	domainErrors "github.com/suravi/checkout/internal/domain/errors"
	"github.com/suravi/checkout/internal/domain/model"
	"github.com/suravi/checkout/internal/domain/repository"
	"github.com/suravi/checkout/internal/metrics"
)

// amountTolerance absorbs float drift between our totals and the amounts
// echoed back by the gateway.
const amountTolerance = 0.01

// PaymentUseCase drives settlement: initiation against the gateway or COD,
// and the two verification entry points converging on one idempotent confirm.
type PaymentUseCase struct {
	orders     repository.OrderRepository
	gateway    esewa.Client
	orderUC    *OrderUseCase
	successURL string
	failureURL string
	logger     *slog.Logger
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(
	orders repository.OrderRepository,
	gateway esewa.Client,
	orderUC *OrderUseCase,
	successURL, failureURL string,
	logger *slog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		orders:     orders,
		gateway:    gateway,
		orderUC:    orderUC,
		successURL: successURL,
		failureURL: failureURL,
		logger:     logger,
	}
}

// Initiate starts settlement for a pending draft. For COD the order is
// finalized immediately; for the gateway a signed redirect form is returned
// and a fresh transaction reference recorded on the order.
func (u *PaymentUseCase) Initiate(ctx context.Context, userID, orderID int64, method model.PaymentMethod) (*esewa.SignedForm, *model.Order, error) {
	order, err := u.orderUC.Get(ctx, orderID, userID)
	if err != nil {
		return nil, nil, err
	}
	if order.PaymentStatus != model.PaymentStatusPending {
		return nil, nil, domainErrors.ErrAlreadyPaid
	}
	if order.Status != model.OrderStatusPendingPayment {
		return nil, nil, domainErrors.ErrOrderNotPending
	}

	switch method {
	case model.PaymentMethodCOD:
		if err := u.orders.SetPaymentMethod(ctx, orderID, model.PaymentMethodCOD); err != nil {
			return nil, nil, err
		}
		metrics.RecordPayment(string(model.PaymentMethodCOD), "accepted")
		order, err = u.orderUC.Finalize(ctx, orderID)
		return nil, order, err

	case model.PaymentMethodEsewa:
		ref := uuid.NewString()
		if err := u.orders.SetGatewayRef(ctx, orderID, ref); err != nil {
			return nil, nil, err
		}
		if err := u.orders.SetPaymentMethod(ctx, orderID, model.PaymentMethodEsewa); err != nil {
			return nil, nil, err
		}
		order.GatewayRef = ref
		order.PaymentMethod = model.PaymentMethodEsewa
		form := u.gateway.PaymentForm(order)
		metrics.RecordPayment(string(model.PaymentMethodEsewa), "initiated")
		return &form, order, nil

	default:
		return nil, nil, domainErrors.ErrInvalidState
	}
}

// VerifyClient is the client-driven verification entry point. The gateway's
// status endpoint is consulted; if it cannot be reached at all, the payment
// is accepted optimistically since the buyer only lands here after the
// gateway redirected them back as successful.
func (u *PaymentUseCase) VerifyClient(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	order, err := u.orderUC.Get(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return order, nil
	}
	if order.PaymentMethod != model.PaymentMethodEsewa || order.GatewayRef == "" {
		return nil, domainErrors.ErrInvalidState
	}

	status, err := u.gateway.CheckStatus(ctx, order.GatewayRef, order.TotalPrice)
	if err != nil {
		if errors.Is(err, esewa.ErrUnreachable) {
			u.logger.Warn("gateway unreachable, accepting payment optimistically",
				slog.Int64("order_id", orderID),
			)
			metrics.RecordPayment(string(model.PaymentMethodEsewa), "assumed")
			return u.confirm(ctx, orderID, "")
		}
		return nil, err
	}

	return u.settle(ctx, order, status)
}

// VerifyCallback is the gateway-redirect verification entry point. It is
// strict: the status endpoint must confirm the transaction, otherwise the
// payment is marked failed. It returns the URL the buyer's browser is sent to.
func (u *PaymentUseCase) VerifyCallback(ctx context.Context, orderID int64, amount float64) (string, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return u.failureURL, err
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return u.successURL, nil
	}
	if order.PaymentMethod != model.PaymentMethodEsewa || order.GatewayRef == "" {
		return u.failureURL, domainErrors.ErrInvalidState
	}
	if !amountsMatch(amount, order.TotalPrice) {
		return u.failureURL, domainErrors.ErrVerificationFailed
	}

	status, err := u.gateway.CheckStatus(ctx, order.GatewayRef, order.TotalPrice)
	if err != nil {
		return u.failureURL, err
	}

	if _, err := u.settle(ctx, order, status); err != nil {
		return u.failureURL, err
	}
	return u.successURL, nil
}

// settle interprets a gateway status report for a still-pending order.
func (u *PaymentUseCase) settle(ctx context.Context, order *model.Order, status *model.GatewayStatus) (*model.Order, error) {
	switch status.State {
	case model.GatewayStateComplete:
		if !amountsMatch(status.TotalAmount, order.TotalPrice) {
			u.logger.Error("gateway amount mismatch",
				slog.Int64("order_id", order.ID),
				slog.Float64("expected", order.TotalPrice),
				slog.Float64("reported", status.TotalAmount),
			)
			return nil, u.fail(ctx, order.ID)
		}
		return u.confirm(ctx, order.ID, status.RefID)

	case model.GatewayStatePending:
		// Not settled yet; leave the order pending for a later attempt.
		return nil, domainErrors.ErrVerificationFailed

	default:
		return nil, u.fail(ctx, order.ID)
	}
}

// confirm is the single idempotent settlement point. The conditional paid
// transition decides the winner; only the winner finalizes the order.
func (u *PaymentUseCase) confirm(ctx context.Context, orderID int64, transactionRef string) (*model.Order, error) {
	won, err := u.orders.MarkPaid(ctx, orderID, model.PaymentMethodEsewa, transactionRef)
	if err != nil {
		return nil, err
	}
	if !won {
		return u.orders.GetByID(ctx, orderID)
	}
	metrics.RecordPayment(string(model.PaymentMethodEsewa), "paid")

	order, err := u.orderUC.Finalize(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInsufficientStock):
			// Paid but out of stock: the order is on hold, payment stands.
			return order, nil
		case errors.Is(err, domainErrors.ErrOrderNotPending):
			return u.orders.GetByID(ctx, orderID)
		default:
			return nil, err
		}
	}
	return order, nil
}

func (u *PaymentUseCase) fail(ctx context.Context, orderID int64) error {
	if err := u.orders.MarkPaymentFailed(ctx, orderID); err != nil {
		u.logger.Error("marking payment failed",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
	metrics.RecordPayment(string(model.PaymentMethodEsewa), "failed")
	return domainErrors.ErrVerificationFailed
}

func amountsMatch(a, b float64) bool {
	return math.Abs(a-b) <= amountTolerance
}
