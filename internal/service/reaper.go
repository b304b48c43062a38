package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/razeathletics/storefront/internal/repository"
)

const (
	reaperLockKey   = "checkout-reaper"
	reaperBatchSize = 100
)

// StaleExpirer expires checkout sessions staged before a cutoff.
type StaleExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ReaperConfig holds the schedule of the checkout reaper.
type ReaperConfig struct {
	Interval time.Duration
	// TTL is how long a checkout session stays payable.
	TTL time.Duration
	// Grace is added to TTL so a late payment can still land.
	Grace time.Duration
}

// Reaper periodically expires abandoned checkout sessions and gives their
// stock holds back. Only the replica holding the lock sweeps on a tick.
type Reaper struct {
	expirer StaleExpirer
	locker  repository.Locker
	logger  *slog.Logger
	cfg     ReaperConfig
	now     func() time.Time
}

// NewReaper creates a new checkout reaper.
func NewReaper(expirer StaleExpirer, locker repository.Locker, logger *slog.Logger, cfg ReaperConfig) *Reaper {
	return &Reaper{
		expirer: expirer,
		locker:  locker,
		logger:  logger,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on every tick until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info("checkout reaper started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Duration("ttl", r.cfg.TTL),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("checkout reaper sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep runs one pass and returns the number of sessions it expired. A
// pass skipped because another replica holds the lock expires nothing.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	unlock, ok, err := r.locker.TryLock(ctx, reaperLockKey, r.cfg.Interval)
	if err != nil {
		reaperSweeps.WithLabelValues("error").Inc()
		return 0, err
	}
	if !ok {
		reaperSweeps.WithLabelValues("skipped").Inc()
		return 0, nil
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("failed to release reaper lock", slog.String("error", err.Error()))
		}
	}()

	cutoff := r.now().Add(-(r.cfg.TTL + r.cfg.Grace))
	expired, err := r.expirer.ExpireStale(ctx, cutoff, reaperBatchSize)
	if err != nil {
		reaperSweeps.WithLabelValues("error").Inc()
		return 0, err
	}

	reaperSweeps.WithLabelValues("ok").Inc()
	reaperExpired.Add(float64(expired))
	if expired > 0 {
		r.logger.Info("abandoned checkouts expired", slog.Int("count", expired))
	}
	return expired, nil
}
