package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"alert_relay/internal/modules/config"
	"alert_relay/internal/modules/health/service"
	"alert_relay/internal/runner"
	"alert_relay/internal/runner/results"
	"alert_relay/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	return Config{Addr: cfg.AdminAddr()}
}

// WorkerStats is the worker's own view of its progress.
type WorkerStats interface {
	Processed() int64
	LastRun() time.Time
}

// Probe is what /healthz reads besides the state.
type Probe struct {
	Queue   *runner.Queue
	Results *results.Correlator
	Worker  WorkerStats
}

func NewMux(state *service.State, probe Probe) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: venue probe passed
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"ready":             state.Ready(),
			"uptimeSec":         int64(state.Uptime().Seconds()),
			"executed":          state.Executed(),
			"failed":            state.Failed(),
			"lastExecutionUnix": unixOrZero(state.LastExecution()),
		}
		if probe.Queue != nil {
			resp["queueDepth"] = probe.Queue.Len()
			resp["queueCapacity"] = probe.Queue.Cap()
		}
		if probe.Results != nil {
			resp["pendingResults"] = probe.Results.Len()
		}
		if probe.Worker != nil {
			resp["processed"] = probe.Worker.Processed()
			resp["lastResultUnix"] = unixOrZero(probe.Worker.LastRun())
		}
		body, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})

	return mux
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.L().Error("health server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			fx.Annotate(
				func(s *service.State) runner.Observer { return s },
				fx.ResultTags(`group:"observers"`),
			),
			NewConfig,
			func(q *runner.Queue, c *results.Correlator, w *runner.Worker) Probe {
				return Probe{Queue: q, Results: c, Worker: w}
			},
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
