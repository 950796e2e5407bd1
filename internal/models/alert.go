package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Side of an alert, as the venue spells it.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func ParseSide(raw string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(raw))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", errors.Wrapf(ErrValidation, "unsupported side %q", raw)
}

// Alert is one inbound trading signal. It is built once by the ingress and
// passed by value afterwards.
type Alert struct {
	Market        string          `json:"market"`
	Side          Side            `json:"side"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	CorrelationID string          `json:"clientId"`
	ReceivedAt    time.Time       `json:"receivedAt"`
}

func (a Alert) Validate() error {
	if strings.TrimSpace(a.Market) == "" {
		return errors.Wrap(ErrValidation, "market is empty")
	}
	if a.Side != SideBuy && a.Side != SideSell {
		return errors.Wrapf(ErrValidation, "unsupported side %q", a.Side)
	}
	if !a.Price.IsPositive() {
		return errors.Wrapf(ErrValidation, "price must be positive, got %s", a.Price)
	}
	if a.Amount.IsNegative() {
		return errors.Wrapf(ErrValidation, "amount must not be negative, got %s", a.Amount)
	}
	if a.CorrelationID == "" {
		return errors.Wrap(ErrValidation, "clientId is empty")
	}
	return nil
}
