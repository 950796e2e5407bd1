package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alert_relay/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const sendTimeout = 10 * time.Second

var statusEmoji = map[string]string{
	"success": "✅",
	"partial": "⚠️",
	"failed":  "❌",
}

// FormatResult renders an execution summary for chat.
func FormatResult(res models.ExecutionResult) string {
	var b strings.Builder
	status := res.Status()
	fmt.Fprintf(&b, "%s %s %s [%s] %s\n", statusEmoji[status], strings.ToUpper(string(res.Side)), res.Market, res.CorrelationID, status)

	if res.Order != nil {
		fmt.Fprintf(&b, "amount=%s price=%s sl=%s tp=%s\n",
			res.Order.Amount, res.Order.Price, level(res.Order.StopLossPrice), level(res.Order.TakeProfitPrice))
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "error: %s\n", res.Error)
	}
	for _, s := range res.Steps {
		if s.OK {
			fmt.Fprintf(&b, "- %s ok\n", s.Step)
			continue
		}
		fmt.Fprintf(&b, "- %s FAILED: %s\n", s.Step, s.Error)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Reporter sends a summary of every execution. Registered as a worker observer.
type Reporter struct {
	n Notifier
}

func NewReporter(n Notifier) *Reporter {
	return &Reporter{n: n}
}

// OnResult returns once the message is sent or ctx is done, whichever is first.
func (r *Reporter) OnResult(ctx context.Context, res models.ExecutionResult) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.n.Send(FormatResult(res)) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "report %s", res.CorrelationID)
	}
}

// level prints "-" for a protective level that was never placed.
func level(p decimal.Decimal) string {
	if p.IsZero() {
		return "-"
	}
	return p.String()
}
