package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"alert_relay/internal/models"

	"github.com/bytedance/sonic"
)

// FuturesBalance reads the futures account in the settle currency.
func (c *Client) FuturesBalance(ctx context.Context) (models.AccountSnapshot, error) {
	data, err := c.get(ctx, "/assets/futures/balance", nil)
	if err != nil {
		return models.AccountSnapshot{}, err
	}

	var balances []futuresBalance
	if err := sonic.Unmarshal(data, &balances); err != nil {
		return models.AccountSnapshot{}, fmt.Errorf("FuturesBalance decode: %w; data=%s", err, string(data))
	}
	for _, b := range balances {
		if strings.EqualFold(b.Ccy, c.settleCcy) {
			return models.AccountSnapshot{Available: b.Available, Margin: b.Margin}, nil
		}
	}
	return models.AccountSnapshot{}, fmt.Errorf("FuturesBalance: no %s balance in reply", c.settleCcy)
}

// Market reads the market metadata of one futures market.
func (c *Client) Market(ctx context.Context, market string) (models.MarketInfo, error) {
	data, err := c.get(ctx, "/futures/market", url.Values{"market": {market}})
	if err != nil {
		return models.MarketInfo{}, err
	}

	var markets []futuresMarket
	if err := sonic.Unmarshal(data, &markets); err != nil {
		return models.MarketInfo{}, fmt.Errorf("Market decode: %w; data=%s", err, string(data))
	}
	if len(markets) == 0 {
		return models.MarketInfo{}, fmt.Errorf("market %s not found", market)
	}

	m := markets[0]
	return models.MarketInfo{
		Market:         m.Market,
		MinAmount:      m.MinAmount,
		TickSize:       m.TickSize,
		BasePrecision:  m.BaseCcyPrecision,
		QuotePrecision: m.QuoteCcyPrecision,
		Leverages:      m.Leverage,
	}, nil
}
