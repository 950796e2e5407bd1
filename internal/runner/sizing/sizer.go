package sizing

import (
	"alert_relay/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places for amounts and prices.
const Precision int32 = 8

type Policy string

const (
	// PolicyFixed puts stop-loss and take-profit at fixed percentage bands around the alert price.
	PolicyFixed Policy = "fixed"
	// PolicyROI derives both levels from the realized fill and a gain/loss budget of the balance.
	PolicyROI Policy = "roi"
)

var (
	ErrInvalidPrice   = errors.New("price must be positive")
	ErrInvalidBalance = errors.New("balance must not be negative")
)

var hundred = decimal.NewFromInt(100)

type Config struct {
	Policy             Policy
	LeverageMultiplier int
	StopLossPct        float64 // 1.0 => 1%
	TakeProfitPct      float64
	TargetGainPct      float64 // roi only, percent of capital
	TargetLossPct      float64
}

// Sizer turns an alert and an account snapshot into a SizedOrder. It does no I/O.
type Sizer struct {
	policy     Policy
	leverage   decimal.Decimal
	slBand     decimal.Decimal
	tpBand     decimal.Decimal
	targetGain decimal.Decimal
	targetLoss decimal.Decimal
}

func New(cfg Config) *Sizer {
	policy := cfg.Policy
	if policy != PolicyROI {
		policy = PolicyFixed
	}
	return &Sizer{
		policy:     policy,
		leverage:   decimal.NewFromInt(int64(cfg.LeverageMultiplier)),
		slBand:     decimal.NewFromFloat(cfg.StopLossPct).Div(hundred),
		tpBand:     decimal.NewFromFloat(cfg.TakeProfitPct).Div(hundred),
		targetGain: decimal.NewFromFloat(cfg.TargetGainPct).Div(hundred),
		targetLoss: decimal.NewFromFloat(cfg.TargetLossPct).Div(hundred),
	}
}

func (s *Sizer) Policy() Policy { return s.policy }

// NeedsFill reports whether protective levels depend on the submitted order's fill.
func (s *Sizer) NeedsFill() bool { return s.policy == PolicyROI }

// Size computes amount = (available + margin) / price * leverage, truncated to
// Precision places. Zero capital yields a zero amount, not an error.
func (s *Sizer) Size(alert models.Alert, account models.AccountSnapshot) (models.SizedOrder, error) {
	if !alert.Price.IsPositive() {
		return models.SizedOrder{}, errors.Wrapf(ErrInvalidPrice, "got %s", alert.Price)
	}
	capital := account.Capital()
	if capital.IsNegative() {
		return models.SizedOrder{}, errors.Wrapf(ErrInvalidBalance, "got %s", capital)
	}

	amount := capital.Div(alert.Price).Mul(s.leverage).Truncate(Precision)

	order := models.SizedOrder{
		Market:   alert.Market,
		Side:     alert.Side,
		Amount:   amount,
		Price:    alert.Price,
		Capital:  capital,
		ClientID: alert.CorrelationID,
	}
	order.StopLossPrice, order.TakeProfitPrice = s.bands(alert.Side, alert.Price)
	return order, nil
}

func (s *Sizer) bands(side models.Side, price decimal.Decimal) (sl, tp decimal.Decimal) {
	one := decimal.NewFromInt(1)
	if side == models.SideSell {
		sl = price.Mul(one.Add(s.slBand))
		tp = price.Mul(one.Sub(s.tpBand))
	} else {
		sl = price.Mul(one.Sub(s.slBand))
		tp = price.Mul(one.Add(s.tpBand))
	}
	return sl.Round(Precision), tp.Round(Precision)
}

// Levels returns the stop-loss and take-profit to attach after the order was
// submitted. Under the fixed policy they are the ones computed by Size. Under
// the ROI policy they are offsets from the average fill price:
// gain/loss budget of capital divided by the filled amount.
func (s *Sizer) Levels(order models.SizedOrder, fill models.Fill) (sl, tp decimal.Decimal, err error) {
	if s.policy != PolicyROI {
		return order.StopLossPrice, order.TakeProfitPrice, nil
	}
	if !fill.HasFill() {
		return decimal.Zero, decimal.Zero, models.ErrNoFill
	}

	entry := fill.AvgPrice()
	gain := order.Capital.Mul(s.targetGain).Div(fill.Amount)
	loss := order.Capital.Mul(s.targetLoss).Div(fill.Amount)

	if order.Side == models.SideSell {
		tp = entry.Sub(gain)
		sl = entry.Add(loss)
	} else {
		tp = entry.Add(gain)
		sl = entry.Sub(loss)
	}
	return sl.Round(Precision), tp.Round(Precision), nil
}
