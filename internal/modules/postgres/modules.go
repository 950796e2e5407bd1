package postgres

import (
	"context"
	"fmt"

	"alert_relay/internal/modules/config"
	"alert_relay/pkg/db"
	"alert_relay/pkg/logger"

	"go.uber.org/fx"
)

// Module provides *db.PgTxManager. Without a DSN it provides nil and the
// consumers fall back to their no-op variants.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("postgres: no db_dsn configured, journal disabled")
					return nil, nil
				}

				ctx := context.Background()
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN:      cfg.DB,
					MaxConns: 4,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					poolMaster.Close()
					return nil, err
				}

				m := db.NewPgTxManager(poolMaster)
				lc.Append(fx.StopHook(m.Close))
				return m, nil
			},
		),
	)
}
