package reaper

import (
	"context"
	"time"

	"github.com/jrsteele09/storefront-sessions/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = time.Hour

// Sweeper removes deny-list records that expired before now.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper periodically purges expired deny-list records, independent of request traffic.
type Reaper struct {
	sweeper  Sweeper
	interval time.Duration
	nowTime  func() time.Time
	log      zerolog.Logger
}

type Option func(*Reaper)

// WithNowFunc sets the clock passed to each sweep (primarily for testing)
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(r *Reaper) {
		r.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reaper) {
		r.log = logger
	}
}

func New(sweeper Sweeper, interval time.Duration, options ...Option) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	r := &Reaper{
		sweeper:  sweeper,
		interval: interval,
		nowTime:  time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run sweeps once immediately and then every interval until ctx is cancelled.
// Sweep failures are logged and the loop carries on; cancellation returns nil.
func (r *Reaper) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("reaper started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		// Errors are logged by RunOnce.
		_, _ = r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			r.log.Info().Msg("reaper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep and reports how many records were removed.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	removed, err := r.sweeper.SweepExpired(ctx, r.nowTime())
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SweepsTotal.WithLabelValues("failed").Inc()
		r.log.Error().Err(err).Msg("expired credential sweep failed")
		return 0, err
	}

	metrics.SweepsTotal.WithLabelValues("ok").Inc()
	metrics.PurgedRecordsTotal.Add(float64(removed))
	r.log.Debug().Int64("removed", removed).Msg("expired credential sweep finished")
	return removed, nil
}
