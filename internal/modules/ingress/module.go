package ingress

import (
	"context"
	"errors"
	"net"
	"net/http"

	"alert_relay/internal/modules/config"
	"alert_relay/internal/modules/ingress/service"
	"alert_relay/internal/runner"
	"alert_relay/internal/runner/results"
	"alert_relay/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, hub *service.Hub) {
	srv := service.NewServer(cfg.PublicAddr(), router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.L().Info("ingress listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.L().Error("ingress server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			hub.Close()
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("ingress",
		fx.Provide(
			service.NewHub,
			fx.Annotate(
				func(h *service.Hub) runner.Observer { return h },
				fx.ResultTags(`group:"observers"`),
			),
			func(cfg *config.Config, q *runner.Queue, c *results.Correlator) *service.Handler {
				return service.NewHandler(q, c, cfg.Runner.AwaitTimeout)
			},
			service.NewRouter, // *gin.Engine
		),
		fx.Invoke(RunHTTP),
	)
}
