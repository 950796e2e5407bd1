package runner

import (
	"context"
	"encoding/json"
	"time"

	"alert_relay/internal/models"
	"alert_relay/internal/runner/sizing"
	"alert_relay/pkg/logger"
	"alert_relay/pkg/ratelimit"
	"alert_relay/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SequencerConfig struct {
	OrderType  models.OrderType
	MarginMode string
	Leverage   int
}

// Sequencer runs the fixed six-step chain for one sized order. A failed step
// is recorded and the chain goes on. Nothing is rolled back.
type Sequencer struct {
	venue   Venue
	limiter Limiter
	sizer   *sizing.Sizer
	cfg     SequencerConfig
}

func NewSequencer(venue Venue, limiter Limiter, sizer *sizing.Sizer, cfg SequencerConfig) *Sequencer {
	if cfg.OrderType == "" {
		cfg.OrderType = models.OrderTypeMarket
	}
	return &Sequencer{venue: venue, limiter: limiter, sizer: sizer, cfg: cfg}
}

// Execute always returns one outcome per step, in models.ChainSteps order.
// The returned order carries the stop-loss and take-profit that were sent to
// the venue. Both are zero when the protective steps were skipped.
func (s *Sequencer) Execute(ctx context.Context, order models.SizedOrder) ([]models.StepOutcome, models.SizedOrder) {
	out := make([]models.StepOutcome, 0, len(models.ChainSteps))
	applied := order

	out = append(out, s.run(ctx, order, models.StepClosePosition, func(ctx context.Context) (json.RawMessage, error) {
		return s.venue.ClosePosition(ctx, order.Market)
	}))

	out = append(out, s.run(ctx, order, models.StepCancelOrders, func(ctx context.Context) (json.RawMessage, error) {
		return s.venue.CancelAllOrders(ctx, order.Market, order.Side)
	}))

	out = append(out, s.run(ctx, order, models.StepAdjustLeverage, func(ctx context.Context) (json.RawMessage, error) {
		return s.venue.AdjustLeverage(ctx, order.Market, s.cfg.MarginMode, s.cfg.Leverage)
	}))

	var fill models.Fill
	submit := s.run(ctx, order, models.StepSubmitOrder, func(ctx context.Context) (json.RawMessage, error) {
		f, raw, err := s.venue.PlaceOrder(ctx, models.OrderRequest{
			Market:   order.Market,
			Side:     order.Side,
			Type:     s.cfg.OrderType,
			Amount:   order.Amount,
			Price:    order.Price,
			ClientID: order.ClientID,
		})
		fill = f
		return raw, err
	})
	out = append(out, submit)

	sl, tp, err := s.levels(order, submit, fill)
	if err != nil {
		logger.L().Warn("protective orders skipped",
			zap.String("clientId", order.ClientID),
			zap.String("market", order.Market),
			zap.Error(err))
		applied.StopLossPrice, applied.TakeProfitPrice = decimal.Zero, decimal.Zero
		return append(out,
			models.Skipped(models.StepSetStopLoss, err),
			models.Skipped(models.StepSetTakeProfit, err),
		), applied
	}
	applied.StopLossPrice, applied.TakeProfitPrice = sl, tp

	out = append(out, s.run(ctx, order, models.StepSetStopLoss, func(ctx context.Context) (json.RawMessage, error) {
		return s.venue.SetStopLoss(ctx, order.Market, sl)
	}))

	out = append(out, s.run(ctx, order, models.StepSetTakeProfit, func(ctx context.Context) (json.RawMessage, error) {
		return s.venue.SetTakeProfit(ctx, order.Market, tp)
	}))

	return out, applied
}

// levels needs a successful submit. Under the ROI policy it also needs fill data.
func (s *Sequencer) levels(order models.SizedOrder, submit models.StepOutcome, fill models.Fill) (sl, tp decimal.Decimal, err error) {
	if !submit.OK {
		return decimal.Zero, decimal.Zero, models.ErrNoFill
	}
	return s.sizer.Levels(order, fill)
}

func (s *Sequencer) run(
	ctx context.Context,
	order models.SizedOrder,
	step models.StepName,
	call func(ctx context.Context) (json.RawMessage, error),
) models.StepOutcome {
	span, ctx := tracing.StartSpan(ctx, "step."+string(step),
		opentracing.Tag{Key: "market", Value: order.Market},
		opentracing.Tag{Key: "clientId", Value: order.ClientID},
	)
	defer span.Finish()

	start := time.Now()
	outcome := s.call(ctx, step, call)
	outcome.Duration = time.Since(start)

	if !outcome.OK {
		tracing.MarkError(span, outcome.Err)
		logger.L().Warn("step failed",
			zap.String("clientId", order.ClientID),
			zap.String("market", order.Market),
			zap.Error(outcome.Err))
	}
	return outcome
}

func (s *Sequencer) call(ctx context.Context, step models.StepName, call func(ctx context.Context) (json.RawMessage, error)) models.StepOutcome {
	if err := s.limiter.Acquire(ctx, ratelimit.Write); err != nil {
		return models.Failure(step, errors.Wrap(err, "rate limit"))
	}
	payload, err := call(ctx)
	if err != nil {
		return models.Failure(step, err)
	}
	return models.Success(step, payload)
}
