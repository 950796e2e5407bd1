package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"alert_relay/internal/models"
	"alert_relay/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Defaults applied to webhook fields the sender left out.
var (
	DefaultMarket = "BTCUSDT"
	DefaultSide   = models.SideBuy
	DefaultAmount = decimal.RequireFromString("0.01")
	DefaultPrice  = decimal.NewFromInt(50000)
)

type Enqueuer interface {
	Enqueue(alert models.Alert) error
}

type ResultStore interface {
	Await(ctx context.Context, id string, timeout time.Duration) (models.ExecutionResult, error)
	Take(id string) (models.ExecutionResult, error)
}

// webhookPayload accepts numbers or numeric strings for amount and price.
type webhookPayload struct {
	Market   *string          `json:"market"`
	Side     *string          `json:"side"`
	Amount   *decimal.Decimal `json:"amount"`
	Price    *decimal.Decimal `json:"price"`
	ClientID string           `json:"clientId"`
}

type response struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Data    *models.ExecutionResult `json:"data,omitempty"`
}

type Handler struct {
	queue   Enqueuer
	results ResultStore
	timeout time.Duration
}

func NewHandler(queue Enqueuer, results ResultStore, timeout time.Duration) *Handler {
	return &Handler{queue: queue, results: results, timeout: timeout}
}

func (p webhookPayload) alert() (models.Alert, error) {
	a := models.Alert{
		Market:        DefaultMarket,
		Side:          DefaultSide,
		Amount:        DefaultAmount,
		Price:         DefaultPrice,
		CorrelationID: strings.TrimSpace(p.ClientID),
		ReceivedAt:    time.Now(),
	}
	if p.Market != nil && strings.TrimSpace(*p.Market) != "" {
		a.Market = strings.ToUpper(strings.TrimSpace(*p.Market))
	}
	if p.Side != nil {
		side, err := models.ParseSide(*p.Side)
		if err != nil {
			return models.Alert{}, err
		}
		a.Side = side
	}
	if p.Amount != nil {
		a.Amount = *p.Amount
	}
	if p.Price != nil {
		a.Price = *p.Price
	}
	if a.CorrelationID == "" {
		a.CorrelationID = uuid.NewString()
	}
	return a, a.Validate()
}

// Webhook enqueues the alert and waits for its execution result.
func (h *Handler) Webhook(c *gin.Context) {
	var p webhookPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		logger.L().Warn("webhook payload rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
		c.JSON(http.StatusBadRequest, response{Status: "error", Message: "invalid payload: " + err.Error()})
		return
	}
	alert, err := p.alert()
	if err != nil {
		logger.L().Warn("webhook alert rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
		c.JSON(http.StatusBadRequest, response{Status: "error", Message: err.Error()})
		return
	}

	if err := h.queue.Enqueue(alert); err != nil {
		logger.L().Error("alert not enqueued", zap.String("clientId", alert.CorrelationID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, response{Status: "error", Message: err.Error()})
		return
	}
	logger.L().Info("alert enqueued",
		zap.String("clientId", alert.CorrelationID),
		zap.String("market", alert.Market),
		zap.String("side", string(alert.Side)),
		zap.String("price", alert.Price.String()))

	res, err := h.results.Await(c.Request.Context(), alert.CorrelationID, h.timeout)
	if err != nil {
		c.JSON(http.StatusAccepted, response{
			Status:  "pending",
			Message: "still executing, poll GET /results/" + alert.CorrelationID,
			Data:    &models.ExecutionResult{CorrelationID: alert.CorrelationID, Market: alert.Market, Side: alert.Side},
		})
		return
	}
	writeResult(c, res)
}

// Result returns a result that was published after its webhook call gave up waiting.
func (h *Handler) Result(c *gin.Context) {
	res, err := h.results.Take(c.Param("clientId"))
	if err != nil {
		c.JSON(http.StatusNotFound, response{Status: "error", Message: err.Error()})
		return
	}
	writeResult(c, res)
}

func writeResult(c *gin.Context, res models.ExecutionResult) {
	code, status := http.StatusOK, res.Status()
	msg := "executed"
	switch {
	case errors.Is(res.Err, models.ErrValidation):
		code, msg = http.StatusBadRequest, res.Error
	case errors.Is(res.Err, models.ErrUpstreamFetch), errors.Is(res.Err, models.ErrWorkerFault):
		code, msg = http.StatusInternalServerError, res.Error
	case errors.Is(res.Err, models.ErrQueueClosed):
		code, msg = http.StatusServiceUnavailable, res.Error
	case res.Error != "":
		code, msg = http.StatusInternalServerError, res.Error
	case status == "partial":
		msg = "executed with failed steps"
	}
	c.JSON(code, response{Status: status, Message: msg, Data: &res})
}
