package runner

import (
	"context"
	"encoding/json"
	"testing"

	"alert_relay/internal/models"
	"alert_relay/internal/runner/sizing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testSizer(policy sizing.Policy) *sizing.Sizer {
	return sizing.New(sizing.Config{
		Policy:             policy,
		LeverageMultiplier: 10,
		StopLossPct:        1,
		TakeProfitPct:      1,
		TargetGainPct:      10.8,
		TargetLossPct:      2.5,
	})
}

func testOrder() models.SizedOrder {
	return models.SizedOrder{
		Market:          "BTCUSDT",
		Side:            models.SideBuy,
		Amount:          d("0.2"),
		Price:           d("50000"),
		StopLossPrice:   d("49500"),
		TakeProfitPrice: d("50500"),
		Capital:         d("1000"),
		ClientID:        "c1",
	}
}

func newTestSequencer(v Venue, policy sizing.Policy) *Sequencer {
	return NewSequencer(v, nopLimiter{}, testSizer(policy), SequencerConfig{
		OrderType:  models.OrderTypeMarket,
		MarginMode: "cross",
		Leverage:   10,
	})
}

func stepNames(out []models.StepOutcome) []models.StepName {
	names := make([]models.StepName, 0, len(out))
	for _, o := range out {
		names = append(names, o.Step)
	}
	return names
}

func TestExecute_AllStepsSucceed(t *testing.T) {
	v := &mockVenue{}
	v.onChain(models.Fill{Amount: d("0.2"), Value: d("10000")})

	out, applied := newTestSequencer(v, sizing.PolicyFixed).Execute(context.Background(), testOrder())

	require.Len(t, out, 6)
	assert.Equal(t, models.ChainSteps, stepNames(out))
	for _, o := range out {
		assert.True(t, o.OK, "step %s: %s", o.Step, o.Error)
		assert.NoError(t, o.Err)
	}
	assert.True(t, applied.StopLossPrice.Equal(d("49500")))
	assert.True(t, applied.TakeProfitPrice.Equal(d("50500")))

	v.AssertCalled(t, "AdjustLeverage", mock.Anything, "BTCUSDT", "cross", 10)
	v.AssertCalled(t, "CancelAllOrders", mock.Anything, "BTCUSDT", models.SideBuy)
	v.AssertCalled(t, "PlaceOrder", mock.Anything, mock.MatchedBy(func(r models.OrderRequest) bool {
		return r.Amount.Equal(d("0.2")) && r.Type == models.OrderTypeMarket && r.ClientID == "c1"
	}))
	v.AssertCalled(t, "SetStopLoss", mock.Anything, "BTCUSDT", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.Equal(d("49500"))
	}))
	v.AssertCalled(t, "SetTakeProfit", mock.Anything, "BTCUSDT", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.Equal(d("50500"))
	}))
}

func TestExecute_FirstStepFailureContinues(t *testing.T) {
	v := &mockVenue{}
	v.On("ClosePosition", mock.Anything, "BTCUSDT").Return(nil, errors.New("dial tcp: connection refused")).Once()
	v.onChain(models.Fill{Amount: d("0.2"), Value: d("10000")})

	out, _ := newTestSequencer(v, sizing.PolicyFixed).Execute(context.Background(), testOrder())

	require.Len(t, out, 6)
	assert.False(t, out[0].OK)
	assert.Contains(t, out[0].Error, "connection refused")
	for _, o := range out[1:] {
		assert.True(t, o.OK, "step %s", o.Step)
	}
	v.AssertNumberOfCalls(t, "SetTakeProfit", 1)
}

func TestExecute_SubmitFailureSkipsProtectiveOrders(t *testing.T) {
	v := &mockVenue{}
	ok := json.RawMessage(`{}`)
	v.On("ClosePosition", mock.Anything, mock.Anything).Return(ok, nil)
	v.On("CancelAllOrders", mock.Anything, mock.Anything, mock.Anything).Return(ok, nil)
	v.On("AdjustLeverage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(ok, nil)
	v.On("PlaceOrder", mock.Anything, mock.Anything).Return(models.Fill{}, nil, errors.New("insufficient margin"))

	out, applied := newTestSequencer(v, sizing.PolicyFixed).Execute(context.Background(), testOrder())

	require.Len(t, out, 6)
	assert.Equal(t, models.ChainSteps, stepNames(out))
	assert.False(t, out[3].OK)
	assert.ErrorIs(t, out[3].Err, models.ErrStepFailure)
	for _, o := range out[4:] {
		assert.False(t, o.OK)
		assert.Equal(t, "skipped: no fill data", o.Error)
		assert.ErrorIs(t, o.Err, models.ErrNoFill)
	}
	assert.True(t, applied.StopLossPrice.IsZero())
	assert.True(t, applied.TakeProfitPrice.IsZero())
	assert.True(t, applied.Amount.Equal(d("0.2")))
	v.AssertNotCalled(t, "SetStopLoss", mock.Anything, mock.Anything, mock.Anything)
	v.AssertNotCalled(t, "SetTakeProfit", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_ROIWithoutFillSkipsProtectiveOrders(t *testing.T) {
	v := &mockVenue{}
	v.onChain(models.Fill{})

	out, _ := newTestSequencer(v, sizing.PolicyROI).Execute(context.Background(), testOrder())

	require.Len(t, out, 6)
	assert.True(t, out[3].OK)
	assert.Equal(t, "skipped: no fill data", out[4].Error)
	assert.Equal(t, "skipped: no fill data", out[5].Error)
	v.AssertNotCalled(t, "SetStopLoss", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_ROIUsesFill(t *testing.T) {
	v := &mockVenue{}
	v.onChain(models.Fill{Amount: d("0.2"), Value: d("10000")})

	out, applied := newTestSequencer(v, sizing.PolicyROI).Execute(context.Background(), testOrder())

	require.Len(t, out, 6)
	assert.True(t, applied.TakeProfitPrice.Equal(d("50540")), "tp %s", applied.TakeProfitPrice)
	assert.True(t, applied.StopLossPrice.Equal(d("49875")), "sl %s", applied.StopLossPrice)
	v.AssertCalled(t, "SetTakeProfit", mock.Anything, "BTCUSDT", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.Equal(d("50540"))
	}))
	v.AssertCalled(t, "SetStopLoss", mock.Anything, "BTCUSDT", mock.MatchedBy(func(p decimal.Decimal) bool {
		return p.Equal(d("49875"))
	}))
}

func TestExecute_CancelledContextRecordsEveryStep(t *testing.T) {
	v := &mockVenue{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _ := newTestSequencer(v, sizing.PolicyFixed).Execute(ctx, testOrder())

	require.Len(t, out, 6)
	for _, o := range out {
		assert.False(t, o.OK)
	}
	v.AssertNotCalled(t, "ClosePosition", mock.Anything, mock.Anything)
}
