package service

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"alert_relay/internal/models"
	"alert_relay/migrations"
	"alert_relay/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

const saveTimeout = 5 * time.Second

const insertExecution = `
INSERT INTO executions
    (client_id, market, side, status, amount, stop_loss, take_profit, error, steps, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (client_id) DO UPDATE SET
    market      = EXCLUDED.market,
    side        = EXCLUDED.side,
    status      = EXCLUDED.status,
    amount      = EXCLUDED.amount,
    stop_loss   = EXCLUDED.stop_loss,
    take_profit = EXCLUDED.take_profit,
    error       = EXCLUDED.error,
    steps       = EXCLUDED.steps,
    started_at  = EXCLUDED.started_at,
    finished_at = EXCLUDED.finished_at`

const selectRecent = `
SELECT client_id, market, side, status, error, finished_at
FROM executions
ORDER BY finished_at DESC
LIMIT $1`

// Journal is the append-only record of executed alerts.
type Journal interface {
	Save(ctx context.Context, res models.ExecutionResult) error
}

// Executions keeps one row per correlation id in postgres.
type Executions struct {
	tx db.TxManager
}

func NewExecutions(tx db.TxManager) *Executions {
	return &Executions{tx: tx}
}

// EnsureSchema applies every embedded migration. They are written to be
// re-runnable.
func (e *Executions) EnsureSchema(ctx context.Context) error {
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	for _, name := range files {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := e.tx.Conn().Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (e *Executions) Save(ctx context.Context, res models.ExecutionResult) error {
	steps, err := sonic.Marshal(res.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	var amount, sl, tp *string
	if res.Order != nil {
		amount = numeric(res.Order.Amount)
		sl = numeric(res.Order.StopLossPrice)
		tp = numeric(res.Order.TakeProfitPrice)
	}

	return e.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertExecution,
			res.CorrelationID,
			res.Market,
			string(res.Side),
			res.Status(),
			amount,
			sl,
			tp,
			res.Error,
			string(steps),
			res.StartedAt,
			res.FinishedAt,
		)
		return err
	})
}

// numeric maps a zero level, one that was never placed, to NULL.
func numeric(d decimal.Decimal) *string {
	if d.IsZero() {
		return nil
	}
	v := d.String()
	return &v
}

// Record is one row of the journal listing.
type Record struct {
	ClientID   string    `json:"clientId"`
	Market     string    `json:"market"`
	Side       string    `json:"side"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (e *Executions) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := e.tx.Conn().Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ClientID, &r.Market, &r.Side, &r.Status, &r.Error, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Noop is used when no database is configured.
type Noop struct{}

func (Noop) Save(context.Context, models.ExecutionResult) error { return nil }

// Recorder persists every worker result. It is registered as a worker observer.
type Recorder struct {
	journal Journal
}

func NewRecorder(j Journal) *Recorder {
	return &Recorder{journal: j}
}

func (r *Recorder) OnResult(ctx context.Context, res models.ExecutionResult) error {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := r.journal.Save(ctx, res); err != nil {
		return fmt.Errorf("journal %s: %w", res.CorrelationID, err)
	}
	return nil
}
