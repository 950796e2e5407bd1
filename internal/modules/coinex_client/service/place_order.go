package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"alert_relay/internal/models"

	"github.com/bytedance/sonic"
)

const maxClientIDLen = 32

// PlaceOrder submits the entry order and reports what the venue filled.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.Fill, json.RawMessage, error) {
	body := placeOrderRequest{
		Market:     req.Market,
		MarketType: c.marketType,
		Side:       string(req.Side),
		Type:       string(req.Type),
		Amount:     req.Amount.String(),
		ClientID:   clientID(req.ClientID),
	}
	if req.Type == models.OrderTypeLimit {
		body.Price = req.Price.String()
	}

	data, err := c.post(ctx, "/futures/order", body)
	if err != nil {
		return models.Fill{}, nil, err
	}

	var reply orderReply
	if err := sonic.Unmarshal(data, &reply); err != nil {
		return models.Fill{}, data, fmt.Errorf("PlaceOrder decode: %w; data=%s", err, string(data))
	}

	fill := models.Fill{
		Amount: reply.FilledAmount,
		Value:  reply.FilledValue,
	}
	if reply.OrderID != 0 {
		fill.OrderID = strconv.FormatInt(reply.OrderID, 10)
	}
	return fill, data, nil
}

// clientID keeps the venue's client_id charset: letters, digits and underscores, at most 32 chars.
func clientID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
		if b.Len() == maxClientIDLen {
			break
		}
	}
	return b.String()
}
