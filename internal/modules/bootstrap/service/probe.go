package service

import (
	"context"
	"fmt"
	"time"

	"alert_relay/internal/models"
	"alert_relay/pkg/logger"

	"go.uber.org/zap"
)

const DefaultRetryInterval = 3 * time.Second

type Venue interface {
	Market(ctx context.Context, market string) (models.MarketInfo, error)
	FuturesBalance(ctx context.Context) (models.AccountSnapshot, error)
}

type Readiness interface {
	SetReady(v bool)
}

type Announcer interface {
	Send(msg string) error
}

// Probe checks credentials and market access before the relay reports ready.
type Probe struct {
	venue    Venue
	ready    Readiness
	announce Announcer
	market   string
	retry    time.Duration
}

func NewProbe(venue Venue, ready Readiness, announce Announcer, market string, retry time.Duration) *Probe {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	return &Probe{venue: venue, ready: ready, announce: announce, market: market, retry: retry}
}

// Check runs one probe round.
func (p *Probe) Check(ctx context.Context) (models.MarketInfo, models.AccountSnapshot, error) {
	info, err := p.venue.Market(ctx, p.market)
	if err != nil {
		return models.MarketInfo{}, models.AccountSnapshot{}, fmt.Errorf("market %s: %w", p.market, err)
	}
	acc, err := p.venue.FuturesBalance(ctx)
	if err != nil {
		return info, models.AccountSnapshot{}, fmt.Errorf("futures balance: %w", err)
	}
	return info, acc, nil
}

// Run retries Check until it succeeds or ctx is done, then flips readiness.
func (p *Probe) Run(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		info, acc, err := p.Check(ctx)
		if err == nil {
			p.ready.SetReady(true)
			logger.L().Info("venue probe passed",
				zap.String("market", info.Market),
				zap.String("minAmount", info.MinAmount.String()),
				zap.String("capital", acc.Capital().String()),
				zap.Int("attempt", attempt))
			if p.announce != nil {
				_ = p.announce.Send(fmt.Sprintf("🚀 relay ready: %s, capital %s", info.Market, acc.Capital()))
			}
			return nil
		}
		logger.L().Warn("venue probe failed, retrying", zap.Int("attempt", attempt), zap.Duration("in", p.retry), zap.Error(err))

		t := time.NewTimer(p.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
