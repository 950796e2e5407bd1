package runner

import (
	"context"
	"time"

	"alert_relay/internal/models"
	"alert_relay/internal/modules/coinex_client/service"
	"alert_relay/internal/modules/config"
	"alert_relay/internal/runner/results"
	"alert_relay/internal/runner/sizing"
	"alert_relay/pkg/ratelimit"

	"go.uber.org/fx"
)

type workerParams struct {
	fx.In

	Cfg       *config.Config
	Queue     *Queue
	Venue     Venue
	Limiter   *ratelimit.Limiter
	Sizer     *sizing.Sizer
	Sequencer *Sequencer
	Results   *results.Correlator
	Observers []Observer `group:"observers"`
}

func newWorker(p workerParams) *Worker {
	cfg := WorkerConfig{
		FaultBackoff:    p.Cfg.Runner.FaultBackoff,
		ObserverTimeout: p.Cfg.Runner.ObserverTimeout,
	}
	return NewWorker(p.Queue, p.Venue, p.Limiter, p.Sizer, p.Sequencer, p.Results, cfg, p.Observers...)
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *config.Config) *Queue {
				return NewQueue(cfg.Runner.QueueSize)
			},
			func(cfg *config.Config) *ratelimit.Limiter {
				return ratelimit.New(map[ratelimit.Class]time.Duration{
					ratelimit.Read:  ratelimit.PerSecond(cfg.Runner.ReadPerSecond),
					ratelimit.Write: ratelimit.PerSecond(cfg.Runner.WritePerSecond),
				})
			},
			func(cfg *config.Config) *sizing.Sizer {
				return sizing.New(sizing.Config{
					Policy:             sizing.Policy(cfg.Trading.Policy),
					LeverageMultiplier: cfg.Trading.Leverage,
					StopLossPct:        cfg.Trading.StopLossPct,
					TakeProfitPct:      cfg.Trading.TakeProfitPct,
					TargetGainPct:      cfg.Trading.TargetGainPct,
					TargetLossPct:      cfg.Trading.TargetLossPct,
				})
			},
			func(cfg *config.Config) *results.Correlator {
				return results.New(cfg.Results.Retention)
			},
			func(c *service.Client) Venue { return c },
			func(cfg *config.Config, venue Venue, l *ratelimit.Limiter, sz *sizing.Sizer) *Sequencer {
				return NewSequencer(venue, l, sz, SequencerConfig{
					OrderType:  models.OrderType(cfg.Trading.OrderType),
					MarginMode: cfg.Trading.MarginMode,
					Leverage:   cfg.Trading.Leverage,
				})
			},
			newWorker, // *Worker
		),
		fx.Invoke(func(lc fx.Lifecycle, w *Worker, c *results.Correlator) {
			runCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go w.Run(runCtx)
					go c.Run(runCtx)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					defer cancel()
					return w.Stop(ctx)
				},
			})
		}),
	)
}
