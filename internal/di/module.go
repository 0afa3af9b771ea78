package di

import (
	"go.uber.org/fx"

	"github.com/suravi/checkout/internal/adapter/esewa"
	"github.com/suravi/checkout/internal/adapter/notify"
	"github.com/suravi/checkout/internal/app"
	"github.com/suravi/checkout/internal/config"
	"github.com/suravi/checkout/internal/logger"
	"github.com/suravi/checkout/internal/pkg/auth"
	"github.com/suravi/checkout/internal/server/http/handlers"
	"github.com/suravi/checkout/internal/server/http/router"
	"github.com/suravi/checkout/internal/storage/postgres"
	"github.com/suravi/checkout/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		esewa.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(
			func(f *app.CheckoutFacade) handlers.CheckoutFacade { return f },
			func(s *postgres.Storage) handlers.Pinger { return s },
		),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
