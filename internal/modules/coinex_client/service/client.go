package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"alert_relay/internal/modules/config"

	"github.com/bytedance/sonic"
)

const (
	headerKey       = "X-COINEX-KEY"
	headerSign      = "X-COINEX-SIGN"
	headerTimestamp = "X-COINEX-TIMESTAMP"
)

// Client talks to the CoinEx v2 futures REST API. Every request is signed.
type Client struct {
	http       *http.Client
	baseURL    string
	accessID   string
	secretKey  string
	marketType string
	settleCcy  string
	marginMode string
	leverage   int

	now func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Coinex.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.Coinex.BaseURL, "/"),
		accessID:   cfg.Coinex.AccessID,
		secretKey:  cfg.Coinex.SecretKey,
		marketType: cfg.Coinex.MarketType,
		settleCcy:  strings.ToUpper(cfg.Trading.SettleCcy),
		marginMode: cfg.Trading.MarginMode,
		leverage:   cfg.Trading.Leverage,
		now:        time.Now,
	}
}

// APIError is a reply with a non-zero venue code.
type APIError struct {
	Path    string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinex %s: code=%d message=%s", e.Path, e.Code, e.Message)
}

// HTTPError is a reply with a non-200 transport status.
type HTTPError struct {
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("coinex %s: http %d: %s", e.Path, e.Status, e.Body)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// sign is hex(HMAC-SHA256(secret, method + path + body + timestamp)).
func (c *Client) sign(method, requestPath, body, timestamp string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(method + requestPath + body + timestamp))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("%s %s parse url: %w", method, path, err)
	}
	requestPath := u.Path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
		requestPath += "?" + u.RawQuery
	}

	var payload []byte
	if body != nil {
		payload, err = sonic.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s marshal: %w", method, path, err)
		}
	}

	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	sign := c.sign(method, requestPath, string(payload), ts)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s new request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set(headerKey, c.accessID)
	req.Header.Set(headerSign, sign)
	req.Header.Set(headerTimestamp, ts)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s do: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s read body: %w", method, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Path: path, Status: resp.StatusCode, Body: string(data)}
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%s %s decode: %w; body=%s", method, path, err, string(data))
	}
	if env.Code != 0 {
		return nil, &APIError{Path: path, Code: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Data, nil
}
