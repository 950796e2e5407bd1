package journal

import (
	"context"
	"net/http"
	"strconv"

	"alert_relay/internal/modules/journal/service"
	"alert_relay/internal/runner"
	"alert_relay/pkg/db"
	"alert_relay/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultListLimit = 50

func newExecutions(m *db.PgTxManager) *service.Executions {
	if m == nil {
		return nil
	}
	return service.NewExecutions(m)
}

func newJournal(ex *service.Executions) service.Journal {
	if ex == nil {
		return service.Noop{}
	}
	return ex
}

// listHandler serves the latest journal rows on the admin port.
func listHandler(ex *service.Executions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = v
		}
		rows, err := ex.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body, err := sonic.Marshal(rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			newExecutions,
			newJournal,
			service.NewRecorder,
			fx.Annotate(
				func(r *service.Recorder) runner.Observer { return r },
				fx.ResultTags(`group:"observers"`),
			),
		),
		fx.Invoke(func(lc fx.Lifecycle, ex *service.Executions, mux *http.ServeMux) {
			if ex == nil {
				return
			}
			mux.HandleFunc("/executions", listHandler(ex))
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if err := ex.EnsureSchema(ctx); err != nil {
						return err
					}
					logger.L().Info("journal ready", zap.String("table", "executions"))
					return nil
				},
			})
		}),
	)
}
