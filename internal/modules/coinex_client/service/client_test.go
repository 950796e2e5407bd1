package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alert_relay/internal/models"
	"alert_relay/internal/modules/config"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Coinex.BaseURL = srv.URL + "/v2"
	cfg.Coinex.AccessID = "access"
	cfg.Coinex.SecretKey = "secret"

	c := NewClient(&cfg)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func expectedSign(method, path, body, ts string) string {
	h := hmac.New(sha256.New, []byte("secret"))
	h.Write([]byte(method + path + body + ts))
	return hex.EncodeToString(h.Sum(nil))
}

func TestClient_SignsRequests(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)

		assert.Equal(t, "access", r.Header.Get(headerKey))
		assert.Equal(t, "1700000000000", r.Header.Get(headerTimestamp))
		assert.Equal(t, expectedSign(http.MethodPost, "/v2/futures/close-position", gotBody, "1700000000000"),
			r.Header.Get(headerSign))
		_, _ = w.Write([]byte(`{"code":0,"message":"OK","data":{}}`))
	})

	_, err := c.ClosePosition(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, sonic.UnmarshalString(gotBody, &body))
	assert.Equal(t, "BTCUSDT", body["market"])
	assert.Equal(t, "FUTURES", body["market_type"])
	assert.Equal(t, "market", body["type"])
}

func TestClient_SignsQueryString(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("market"))
		assert.Equal(t, expectedSign(http.MethodGet, "/v2/futures/market?market=BTCUSDT", "", "1700000000000"),
			r.Header.Get(headerSign))
		_, _ = w.Write([]byte(`{"code":0,"message":"OK","data":[{"market":"BTCUSDT","min_amount":"0.0001","tick_size":"0.1","base_ccy_precision":8,"quote_ccy_precision":2,"leverage":[1,3,5,10]}]}`))
	})

	m, err := c.Market(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", m.Market)
	assert.True(t, m.MinAmount.Equal(decimal.RequireFromString("0.0001")))
	assert.Equal(t, int32(8), m.BasePrecision)
	assert.Equal(t, []int{1, 3, 5, 10}, m.Leverages)
}

func TestClient_FuturesBalancePicksSettleCcy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/assets/futures/balance", r.URL.Path)
		_, _ = w.Write([]byte(`{"code":0,"message":"OK","data":[
			{"ccy":"BTC","available":"1","margin":"0"},
			{"ccy":"USDT","available":"900.5","margin":"99.5"}]}`))
	})

	snap, err := c.FuturesBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Available.Equal(decimal.RequireFromString("900.5")))
	assert.True(t, snap.Capital().Equal(decimal.NewFromInt(1000)))
}

func TestClient_APIErrorOnNonZeroCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":3008,"message":"position not exists","data":{}}`))
	})

	_, err := c.ClosePosition(context.Background(), "BTCUSDT")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3008, apiErr.Code)
	assert.Equal(t, "position not exists", apiErr.Message)
}

func TestClient_HTTPErrorOnBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.FuturesBalance(context.Background())
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
}

func TestClient_PlaceOrderReportsFill(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, sonic.Unmarshal(b, &body))
		_, _ = w.Write([]byte(`{"code":0,"message":"OK","data":{"order_id":13400,"market":"BTCUSDT","filled_amount":"0.2","filled_value":"10000"}}`))
	})

	fill, raw, err := c.PlaceOrder(context.Background(), models.OrderRequest{
		Market:   "BTCUSDT",
		Side:     models.SideBuy,
		Type:     models.OrderTypeMarket,
		Amount:   decimal.RequireFromString("0.2"),
		Price:    decimal.NewFromInt(50000),
		ClientID: "abc-123-def",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "13400", fill.OrderID)
	assert.True(t, fill.AvgPrice().Equal(decimal.NewFromInt(50000)))

	assert.Equal(t, "0.2", body["amount"])
	assert.Equal(t, "abc123def", body["client_id"])
	_, hasPrice := body["price"]
	assert.False(t, hasPrice, "market orders carry no price")
}

func TestClientID(t *testing.T) {
	assert.Equal(t, "abc123", clientID("abc-123"))
	assert.Len(t, clientID("0123456789-0123456789-0123456789-0123456789"), maxClientIDLen)
	assert.Empty(t, clientID(""))
}
