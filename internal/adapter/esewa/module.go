package esewa

import (
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/suravi/checkout/internal/config"
)

// Module exposes the gateway client implementation to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	callback := strings.TrimRight(p.Config.PublicBaseURL, "/") + "/api/payment/callback"
	return NewHTTPClient(
		p.Config.EsewaBaseURL,
		p.Config.EsewaProductCode,
		p.Config.EsewaSecret,
		callback,
		p.Config.FailureURL,
		p.Logger,
	)
}
