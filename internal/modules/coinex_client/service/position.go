package service

import (
	"context"
	"encoding/json"

	"alert_relay/internal/models"

	"github.com/shopspring/decimal"
)

// ClosePosition market-closes the whole position on market.
func (c *Client) ClosePosition(ctx context.Context, market string) (json.RawMessage, error) {
	return c.post(ctx, "/futures/close-position", closePositionRequest{
		Market:     market,
		MarketType: c.marketType,
		Type:       string(models.OrderTypeMarket),
	})
}

// CancelAllOrders cancels resting orders on market. An empty side cancels both sides.
func (c *Client) CancelAllOrders(ctx context.Context, market string, side models.Side) (json.RawMessage, error) {
	return c.post(ctx, "/futures/cancel-all-order", cancelAllRequest{
		Market:     market,
		MarketType: c.marketType,
		Side:       string(side),
	})
}

func (c *Client) AdjustLeverage(ctx context.Context, market, marginMode string, leverage int) (json.RawMessage, error) {
	if marginMode == "" {
		marginMode = c.marginMode
	}
	if leverage <= 0 {
		leverage = c.leverage
	}
	return c.post(ctx, "/futures/adjust-position-leverage", adjustLeverageRequest{
		Market:     market,
		MarketType: c.marketType,
		MarginMode: marginMode,
		Leverage:   leverage,
	})
}

// SetStopLoss attaches a stop-loss to the open position, triggered by the latest price.
func (c *Client) SetStopLoss(ctx context.Context, market string, price decimal.Decimal) (json.RawMessage, error) {
	return c.post(ctx, "/futures/set-position-stop-loss", stopLossRequest{
		Market:        market,
		MarketType:    c.marketType,
		StopLossType:  "latest_price",
		StopLossPrice: price.String(),
	})
}

// SetTakeProfit attaches a take-profit to the open position, triggered by the latest price.
func (c *Client) SetTakeProfit(ctx context.Context, market string, price decimal.Decimal) (json.RawMessage, error) {
	return c.post(ctx, "/futures/set-position-take-profit", takeProfitRequest{
		Market:          market,
		MarketType:      c.marketType,
		TakeProfitType:  "latest_price",
		TakeProfitPrice: price.String(),
	})
}
