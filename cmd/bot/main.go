package main

import (
	"context"
	"log"
	"os"
	"time"

	"alert_relay/internal/modules/bootstrap"
	"alert_relay/internal/modules/coinex_client"
	"alert_relay/internal/modules/config"
	"alert_relay/internal/modules/health"
	"alert_relay/internal/modules/ingress"
	"alert_relay/internal/modules/journal"
	"alert_relay/internal/modules/postgres"
	"alert_relay/internal/runner"
	"alert_relay/pkg/logger"
	"alert_relay/pkg/tracing"

	telegram "alert_relay/internal/modules/telegram_bot"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Tracing.Host == "" {
		return nil
	}
	tracing.SetServiceName(cfg.Service.Name)
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Tracing.Host, Port: cfg.Tracing.Port})
	if err != nil {
		return err
	}
	lc.Append(fx.StopHook(closer))
	return nil
}

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.L()}
		}),
		fx.StopTimeout(30*time.Second),
		config.Module(),
		fx.Invoke(initTracing),
		postgres.Module(),
		coinex_client.Module(),
		runner.Module(),
		health.Module(),
		journal.Module(),
		telegram.Module(),
		ingress.Module(),
		bootstrap.Module(),
	)
	if err := app.Err(); err != nil {
		logger.Fatal("startup failed: %v", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		logger.Fatal("start failed: %v", err)
	}

	<-app.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error("stop: %v", err)
	}
}
