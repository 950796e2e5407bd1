package runner

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"alert_relay/internal/models"
	"alert_relay/pkg/ratelimit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockVenue struct {
	mock.Mock
}

func rawArg(args mock.Arguments, i int) json.RawMessage {
	if v, ok := args.Get(i).(json.RawMessage); ok {
		return v
	}
	return nil
}

func (m *mockVenue) FuturesBalance(ctx context.Context) (models.AccountSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.AccountSnapshot), args.Error(1)
}

func (m *mockVenue) ClosePosition(ctx context.Context, market string) (json.RawMessage, error) {
	args := m.Called(ctx, market)
	return rawArg(args, 0), args.Error(1)
}

func (m *mockVenue) CancelAllOrders(ctx context.Context, market string, side models.Side) (json.RawMessage, error) {
	args := m.Called(ctx, market, side)
	return rawArg(args, 0), args.Error(1)
}

func (m *mockVenue) AdjustLeverage(ctx context.Context, market, marginMode string, leverage int) (json.RawMessage, error) {
	args := m.Called(ctx, market, marginMode, leverage)
	return rawArg(args, 0), args.Error(1)
}

func (m *mockVenue) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Fill, json.RawMessage, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.Fill), rawArg(args, 1), args.Error(2)
}

func (m *mockVenue) SetStopLoss(ctx context.Context, market string, price decimal.Decimal) (json.RawMessage, error) {
	args := m.Called(ctx, market, price)
	return rawArg(args, 0), args.Error(1)
}

func (m *mockVenue) SetTakeProfit(ctx context.Context, market string, price decimal.Decimal) (json.RawMessage, error) {
	args := m.Called(ctx, market, price)
	return rawArg(args, 0), args.Error(1)
}

// onChain stubs every mutating call as successful.
func (m *mockVenue) onChain(fill models.Fill) {
	ok := json.RawMessage(`{}`)
	m.On("ClosePosition", mock.Anything, mock.Anything).Return(ok, nil)
	m.On("CancelAllOrders", mock.Anything, mock.Anything, mock.Anything).Return(ok, nil)
	m.On("AdjustLeverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ok, nil)
	m.On("PlaceOrder", mock.Anything, mock.Anything).Return(fill, ok, nil)
	m.On("SetStopLoss", mock.Anything, mock.Anything, mock.Anything).Return(ok, nil)
	m.On("SetTakeProfit", mock.Anything, mock.Anything, mock.Anything).Return(ok, nil)
}

// sentPrice returns the price argument of the first call to method.
func (m *mockVenue) sentPrice(t *testing.T, method string) decimal.Decimal {
	t.Helper()
	for _, c := range m.Calls {
		if c.Method == method {
			return c.Arguments.Get(2).(decimal.Decimal)
		}
	}
	t.Fatalf("%s was not called", method)
	return decimal.Zero
}

type nopLimiter struct{}

func (nopLimiter) Acquire(ctx context.Context, _ ratelimit.Class) error { return ctx.Err() }

// collector records published results in order.
type collector struct {
	mu  sync.Mutex
	got []models.ExecutionResult
	ch  chan models.ExecutionResult
}

func newCollector() *collector {
	return &collector{ch: make(chan models.ExecutionResult, 64)}
}

func (c *collector) Publish(_ string, res models.ExecutionResult) {
	c.mu.Lock()
	c.got = append(c.got, res)
	c.mu.Unlock()
	c.ch <- res
}

func (c *collector) results() []models.ExecutionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ExecutionResult(nil), c.got...)
}
