package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

type StepName string

const (
	StepClosePosition  StepName = "ClosePosition"
	StepCancelOrders   StepName = "CancelOrders"
	StepAdjustLeverage StepName = "AdjustLeverage"
	StepSubmitOrder    StepName = "SubmitOrder"
	StepSetStopLoss    StepName = "SetStopLoss"
	StepSetTakeProfit  StepName = "SetTakeProfit"
)

// ChainSteps is the fixed execution order of one alert.
var ChainSteps = []StepName{
	StepClosePosition,
	StepCancelOrders,
	StepAdjustLeverage,
	StepSubmitOrder,
	StepSetStopLoss,
	StepSetTakeProfit,
}

type StepOutcome struct {
	Step     StepName        `json:"step"`
	OK       bool            `json:"ok"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Error    string          `json:"error,omitempty"`
	Duration time.Duration   `json:"durationNs"`

	// Err is set on failed steps and matches both ErrStepFailure and the cause.
	Err error `json:"-"`
}

func Success(step StepName, payload json.RawMessage) StepOutcome {
	return StepOutcome{Step: step, OK: true, Payload: payload}
}

func Failure(step StepName, err error) StepOutcome {
	if err == nil {
		err = errors.New("unknown error")
	}
	return StepOutcome{
		Step:  step,
		Error: err.Error(),
		Err:   fmt.Errorf("%s: %w: %w", step, ErrStepFailure, err),
	}
}

// Skipped is a Failure for a step that was never sent to the venue.
func Skipped(step StepName, reason error) StepOutcome {
	out := Failure(step, reason)
	out.Error = "skipped: " + out.Error
	return out
}

// ExecutionResult is the aggregated outcome of one alert.
type ExecutionResult struct {
	CorrelationID string        `json:"clientId"`
	Market        string        `json:"market"`
	Side          Side          `json:"side"`
	Order         *SizedOrder   `json:"order,omitempty"`
	Steps         []StepOutcome `json:"steps"`
	Error         string        `json:"error,omitempty"`
	StartedAt     time.Time     `json:"startedAt"`
	FinishedAt    time.Time     `json:"finishedAt"`

	// Err keeps the typed error for in-process callers.
	Err error `json:"-"`
}

func NewExecutionResult(a Alert) ExecutionResult {
	return ExecutionResult{
		CorrelationID: a.CorrelationID,
		Market:        a.Market,
		Side:          a.Side,
		Steps:         []StepOutcome{},
		StartedAt:     time.Now(),
	}
}

func (r *ExecutionResult) Fail(err error) {
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// FailedSteps counts the steps that did not succeed.
func (r ExecutionResult) FailedSteps() int {
	n := 0
	for _, s := range r.Steps {
		if !s.OK {
			n++
		}
	}
	return n
}

// Status is "success", "partial" or "failed".
func (r ExecutionResult) Status() string {
	switch {
	case r.Err != nil || r.Error != "":
		return "failed"
	case r.FailedSteps() > 0:
		return "partial"
	default:
		return "success"
	}
}
