package runner

import (
	"context"
	"encoding/json"

	"alert_relay/internal/models"
	"alert_relay/pkg/ratelimit"

	"github.com/shopspring/decimal"
)

// Venue is the subset of the exchange client the worker drives.
type Venue interface {
	FuturesBalance(ctx context.Context) (models.AccountSnapshot, error)
	ClosePosition(ctx context.Context, market string) (json.RawMessage, error)
	CancelAllOrders(ctx context.Context, market string, side models.Side) (json.RawMessage, error)
	AdjustLeverage(ctx context.Context, market, marginMode string, leverage int) (json.RawMessage, error)
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Fill, json.RawMessage, error)
	SetStopLoss(ctx context.Context, market string, price decimal.Decimal) (json.RawMessage, error)
	SetTakeProfit(ctx context.Context, market string, price decimal.Decimal) (json.RawMessage, error)
}

type Limiter interface {
	Acquire(ctx context.Context, class ratelimit.Class) error
}

// Observer receives every published result. Errors are logged by the worker
// and never affect the chain.
type Observer interface {
	OnResult(ctx context.Context, res models.ExecutionResult) error
}

type Publisher interface {
	Publish(id string, res models.ExecutionResult)
}
