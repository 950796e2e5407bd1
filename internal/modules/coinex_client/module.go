package coinex_client

import (
	"alert_relay/internal/modules/coinex_client/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("coinex_client",
		fx.Provide(
			service.NewClient, // *service.Client
		),
	)
}
