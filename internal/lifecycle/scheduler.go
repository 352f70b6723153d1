package lifecycle

import (
	"context"
	"time"
)

// DefaultSweepInterval is the default period between two lifecycle passes.
const DefaultSweepInterval = time.Hour

// A Scheduler runs the lifecycle passes periodically.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
}

// NewScheduler returns a new Scheduler.
func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
	}
}

// Run performs a pass immediately and then on every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.engine.Pass(ctx, s.engine.now())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Pass runs the journey sweep, the record expiry and the expired sessions cleanup once.
// Failures are logged, a pass never stops the following ones.
func (e *Engine) Pass(ctx context.Context, now time.Time) (swept, expired int) {
	var err error

	if swept, err = e.Sweep(ctx, now); err != nil {
		e.log.WithError(err).Error("journey sweep failed")
	}

	if expired, err = e.ExpireRecords(ctx, now); err != nil {
		e.log.WithError(err).Error("record expiry failed")
	}

	if err = e.sessions.PurgeExpired(); err != nil {
		e.log.WithError(err).Error("session cleanup failed")
	}

	return swept, expired
}
