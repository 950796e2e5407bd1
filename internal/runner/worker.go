package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"alert_relay/internal/models"
	"alert_relay/internal/runner/sizing"
	"alert_relay/pkg/logger"
	"alert_relay/pkg/ratelimit"
	"alert_relay/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultObserverTimeout = 5 * time.Second

type WorkerConfig struct {
	// FaultBackoff is the pause after a recovered panic.
	FaultBackoff time.Duration
	// ObserverTimeout bounds each observer call. Observers get a context
	// detached from the worker's, so results finished during shutdown are
	// still delivered.
	ObserverTimeout time.Duration
}

// Worker is the only goroutine that sends mutating calls to the venue. It
// takes alerts from the queue one by one and runs each chain to completion
// before the next.
type Worker struct {
	queue     *Queue
	venue     Venue
	limiter   Limiter
	sizer     *sizing.Sizer
	seq       *Sequencer
	results   Publisher
	observers []Observer
	cfg       WorkerConfig

	done      chan struct{}
	rejecting atomic.Bool
	processed atomic.Int64
	lastRun   atomic.Int64 // unix nano of the last published result
}

func NewWorker(
	queue *Queue,
	venue Venue,
	limiter Limiter,
	sizer *sizing.Sizer,
	seq *Sequencer,
	results Publisher,
	cfg WorkerConfig,
	observers ...Observer,
) *Worker {
	if cfg.ObserverTimeout <= 0 {
		cfg.ObserverTimeout = defaultObserverTimeout
	}
	return &Worker{
		queue:     queue,
		venue:     venue,
		limiter:   limiter,
		sizer:     sizer,
		seq:       seq,
		results:   results,
		observers: observers,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// Run consumes the queue until it is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	logger.L().Info("worker started", zap.Int("queueCapacity", w.queue.Cap()))

	for alert := range w.queue.alerts() {
		if w.rejecting.Load() {
			res := models.NewExecutionResult(alert)
			res.Fail(errors.Wrap(models.ErrQueueClosed, "rejected on shutdown"))
			w.finish(ctx, res)
			continue
		}
		w.handle(ctx, alert)
	}
	logger.L().Info("worker stopped", zap.Int64("processed", w.processed.Load()))
}

// Stop closes the queue and waits for the worker to drain it. When ctx
// expires first, alerts still queued are rejected with ErrQueueClosed.
func (w *Worker) Stop(ctx context.Context) error {
	w.queue.Close()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.rejecting.Store(true)
		logger.L().Warn("worker drain interrupted, rejecting queued alerts", zap.Int("queued", w.queue.Len()))
		return ctx.Err()
	}
}

// Processed counts published results, rejected ones included.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// LastRun is when the last result was published, zero before the first.
func (w *Worker) LastRun() time.Time {
	n := w.lastRun.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (w *Worker) handle(ctx context.Context, alert models.Alert) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		logger.L().Error("worker fault",
			zap.String("clientId", alert.CorrelationID),
			zap.Any("panic", p),
			zap.Stack("stack"))

		res := models.NewExecutionResult(alert)
		res.Fail(errors.Wrap(models.ErrWorkerFault, fmt.Sprint(p)))
		w.finish(ctx, res)
		w.sleep(ctx, w.cfg.FaultBackoff)
	}()

	w.finish(ctx, w.process(ctx, alert))
}

func (w *Worker) process(ctx context.Context, alert models.Alert) models.ExecutionResult {
	span, ctx := tracing.StartSpan(ctx, "alert",
		opentracing.Tag{Key: "market", Value: alert.Market},
		opentracing.Tag{Key: "side", Value: string(alert.Side)},
		opentracing.Tag{Key: "clientId", Value: alert.CorrelationID},
	)
	defer span.Finish()

	res := models.NewExecutionResult(alert)
	log := logger.L().With(
		zap.String("clientId", alert.CorrelationID),
		zap.String("market", alert.Market),
		zap.String("side", string(alert.Side)))

	if err := w.limiter.Acquire(ctx, ratelimit.Read); err != nil {
		res.Fail(errors.Wrapf(models.ErrUpstreamFetch, "rate limit: %v", err))
		tracing.MarkError(span, res.Err)
		return res
	}
	account, err := w.venue.FuturesBalance(ctx)
	if err != nil {
		res.Fail(errors.Wrapf(models.ErrUpstreamFetch, "futures balance: %v", err))
		tracing.MarkError(span, res.Err)
		log.Error("balance fetch failed, chain not started", zap.Error(err))
		return res
	}

	order, err := w.sizer.Size(alert, account)
	switch {
	case errors.Is(err, sizing.ErrInvalidPrice):
		res.Fail(errors.Wrapf(models.ErrValidation, "%v", err))
	case err != nil:
		res.Fail(errors.Wrapf(models.ErrUpstreamFetch, "sizing: %v", err))
	case !order.Amount.IsPositive():
		res.Fail(errors.Wrapf(models.ErrUpstreamFetch, "nothing to trade with capital %s", order.Capital))
	}
	if res.Err != nil {
		tracing.MarkError(span, res.Err)
		log.Error("alert not sized, chain not started", zap.Error(res.Err))
		return res
	}

	log.Info("executing chain",
		zap.String("amount", order.Amount.String()),
		zap.String("price", order.Price.String()))

	steps, applied := w.seq.Execute(ctx, order)
	res.Steps = steps
	res.Order = &applied
	res.FinishedAt = time.Now()

	log.Info("chain finished",
		zap.String("status", res.Status()),
		zap.String("stopLoss", applied.StopLossPrice.String()),
		zap.String("takeProfit", applied.TakeProfitPrice.String()),
		zap.Int("failedSteps", res.FailedSteps()),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)))
	return res
}

// finish publishes the result first, then hands it to the observers.
func (w *Worker) finish(ctx context.Context, res models.ExecutionResult) {
	if res.FinishedAt.IsZero() {
		res.FinishedAt = time.Now()
	}
	w.results.Publish(res.CorrelationID, res)
	w.processed.Add(1)
	w.lastRun.Store(res.FinishedAt.UnixNano())

	for _, o := range w.observers {
		w.notify(ctx, o, res)
	}
}

func (w *Worker) notify(ctx context.Context, o Observer, res models.ExecutionResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.ObserverTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("panic: %v", p)
			}
		}()
		done <- o.OnResult(ctx, res)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = errors.Wrap(ctx.Err(), "observer did not return in time")
	}
	if err != nil {
		logger.L().Warn("observer failed",
			zap.String("clientId", res.CorrelationID),
			zap.String("observer", fmt.Sprintf("%T", o)),
			zap.Error(err))
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
