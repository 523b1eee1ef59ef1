package control

import (
	"context"
	"time"
)

// Scheduler is the loop's only suspension point. Wait returns after one
// tick interval or with ctx's error.
type Scheduler interface {
	Wait(ctx context.Context) error
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(ctx context.Context) error

func (f SchedulerFunc) Wait(ctx context.Context) error { return f(ctx) }

// IntervalScheduler waits a fixed wall-clock interval per tick.
type IntervalScheduler struct {
	interval time.Duration
}

func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval}
}

func (s *IntervalScheduler) Interval() time.Duration { return s.interval }

func (s *IntervalScheduler) Wait(ctx context.Context) error {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
