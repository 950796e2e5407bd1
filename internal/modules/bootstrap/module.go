package bootstrap

import (
	"context"
	"errors"

	bootstrap "alert_relay/internal/modules/bootstrap/service"
	coinex "alert_relay/internal/modules/coinex_client/service"
	"alert_relay/internal/modules/config"
	health "alert_relay/internal/modules/health/service"
	"alert_relay/internal/notify"
	"alert_relay/pkg/logger"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			func(cfg *config.Config, c *coinex.Client, s *health.State, n notify.Notifier) *bootstrap.Probe {
				return bootstrap.NewProbe(c, s, n, cfg.Trading.ProbeMarket, bootstrap.DefaultRetryInterval)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, p *bootstrap.Probe) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
							logger.Error("[BOOT] venue probe stopped: %v", err)
						}
					}()
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
