package telegram

import (
	"context"
	"fmt"
	"time"

	"alert_relay/internal/modules/config"
	health "alert_relay/internal/modules/health/service"
	"alert_relay/internal/notify"
	"alert_relay/internal/runner"
	"alert_relay/pkg/logger"

	"go.uber.org/fx"
)

func statusLine(q *runner.Queue, s *health.State) notify.StatusFunc {
	return func() string {
		return fmt.Sprintf("ready=%t queue=%d/%d executed=%d failed=%d uptime=%s",
			s.Ready(), q.Len(), q.Cap(), s.Executed(), s.Failed(), s.Uptime().Round(time.Second))
	}
}

func Module() fx.Option {
	return fx.Module("telegram",
		// 1. Нотифайер: Telegram если есть токен, иначе лог
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config, q *runner.Queue, s *health.State) (notify.Notifier, error) {
				if cfg.Telegram.Token == "" {
					logger.Info("telegram: no token configured, notifications go to log")
					return notify.NewStdout(), nil
				}
				t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.Timeout, statusLine(q, s))
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return t.Start(context.Background())
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
				return t, nil
			},
		),

		// 2. Отчёт по каждому исполнению
		fx.Provide(
			notify.NewReporter,
			fx.Annotate(
				func(r *notify.Reporter) runner.Observer { return r },
				fx.ResultTags(`group:"observers"`),
			),
		),
	)
}
