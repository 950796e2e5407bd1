package service

import (
	"context"
	"sync/atomic"
	"time"

	"alert_relay/internal/models"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	executed      atomic.Int64
	failed        atomic.Int64
	lastExecution atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// OnResult counts executions. Registered as a worker observer.
func (s *State) OnResult(_ context.Context, res models.ExecutionResult) error {
	s.executed.Add(1)
	if res.Status() != "success" {
		s.failed.Add(1)
	}
	s.TouchExecution(res.FinishedAt)
	return nil
}

func (s *State) Executed() int64 { return s.executed.Load() }
func (s *State) Failed() int64   { return s.failed.Load() }

func (s *State) TouchExecution(t time.Time) { s.lastExecution.Store(t.Unix()) }
func (s *State) LastExecution() time.Time {
	u := s.lastExecution.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
