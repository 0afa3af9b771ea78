package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/suravi/checkout/internal/config"
)

// Module exposes the event publisher to the fx graph.
var Module = fx.Options(
	fx.Provide(newPublisher),
	fx.Invoke(registerLifecycle),
)

type publisherParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newPublisher(p publisherParams) Publisher {
	return NewKafkaPublisher(p.Config.KafkaBrokers, p.Config.NotifyTopic, p.Logger)
}

func registerLifecycle(lc fx.Lifecycle, publisher Publisher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
}
