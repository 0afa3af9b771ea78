package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/suravi/checkout/internal/adapter/esewa"
	"github.com/suravi/checkout/internal/config"
	"github.com/suravi/checkout/internal/domain/repository"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	NewPricingEngine,
	NewOrderUseCase,
	newPaymentUseCase,
)

type paymentParams struct {
	fx.In

	Orders  repository.OrderRepository
	Gateway esewa.Client
	OrderUC *OrderUseCase
	Config  *config.Config
	Logger  *slog.Logger
}

func newPaymentUseCase(p paymentParams) *PaymentUseCase {
	return NewPaymentUseCase(p.Orders, p.Gateway, p.OrderUC, p.Config.SuccessURL, p.Config.FailureURL, p.Logger)
}
