package config

import (
	"alert_relay/pkg/logger"

	"go.uber.org/fx"
)

// Module registers *Config as an fx provider and initializes the loggers from it.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(func(cfg *Config) error {
			logger.SetServiceName(cfg.Service.Name)
			return logger.Init(cfg.LogLevel)
		}),
	)
}
