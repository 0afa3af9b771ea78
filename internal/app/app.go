package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/suravi/checkout/internal/adapter/notify"
	"github.com/suravi/checkout/internal/config"
	"github.com/suravi/checkout/internal/usecase"
	"github.com/suravi/checkout/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewCheckoutFacade,
		newHTTPServer,
		newNotifier,
		newDraftSweeper,
		func(n *worker.Notifier) usecase.ConfirmationNotifier { return n },
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:    p.Config.RunAddress,
		Handler: p.Router,
	}
}

type notifierParams struct {
	fx.In

	Publisher notify.Publisher
	Config    *config.Config
	Logger    *slog.Logger
}

func newNotifier(p notifierParams) *worker.Notifier {
	return worker.NewNotifier(p.Publisher, p.Config.NotifyQueueSize, p.Logger)
}

type sweeperParams struct {
	fx.In

	Facade *CheckoutFacade
	Config *config.Config
	Logger *slog.Logger
}

func newDraftSweeper(p sweeperParams) *worker.DraftSweeper {
	return worker.NewDraftSweeper(
		p.Facade,
		p.Config.SweepInterval,
		p.Config.StaleDraftAge,
		p.Config.PurgeDraftAge,
		p.Logger,
	)
}

type lifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *slog.Logger
	Server     *http.Server
	Notifier   *worker.Notifier
	Sweeper    *worker.DraftSweeper
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting checkout", slog.String("addr", p.Server.Addr))
			p.Notifier.Start(ctx)
			p.Sweeper.Start(ctx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", slog.String("error", err.Error()))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Sweeper.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			// Stopped last so confirmations enqueued by in-flight
			// requests still get delivered.
			p.Notifier.Stop()
			p.Logger.Info("checkout stopped")
			return nil
		},
	})
}
