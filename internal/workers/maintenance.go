package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bloodLink/internal/metrics"
)

type RequestExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// PoolRefresher reloads the donor pool from storage into the cache.
type PoolRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Maintenance runs the periodic background jobs: expiring overdue requests
// and keeping the donor pool cache warm.
type Maintenance struct {
	expirer         RequestExpirer
	pool            PoolRefresher
	expiryInterval  time.Duration
	refreshInterval time.Duration
	logger          *slog.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewMaintenance(
	expirer RequestExpirer,
	pool PoolRefresher,
	expiryInterval, refreshInterval time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Maintenance {
	return &Maintenance{
		expirer:         expirer,
		pool:            pool,
		expiryInterval:  expiryInterval,
		refreshInterval: refreshInterval,
		logger:          logger,
		metrics:         m,
		now:             time.Now,
	}
}

// Run blocks until ctx is done. A zero interval disables that job.
func (w *Maintenance) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if w.expirer != nil && w.expiryInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, w.expiryInterval, w.expireOnce)
		}()
	}
	if w.pool != nil && w.refreshInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, w.refreshInterval, w.refreshOnce)
		}()
	}

	w.logger.Info("maintenance workers STARTED",
		slog.Duration("expiry_interval", w.expiryInterval),
		slog.Duration("refresh_interval", w.refreshInterval),
	)
	wg.Wait()
	w.logger.Info("maintenance workers STOPPED")
}

func (w *Maintenance) loop(ctx context.Context, every time.Duration, job func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	job(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

func (w *Maintenance) expireOnce(ctx context.Context) {
	n, err := w.expirer.ExpireDue(ctx, w.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("expire due requests failed", slog.Any("error", err))
		}
		return
	}
	w.metrics.Expired(n)
	if n > 0 {
		w.logger.Info("expired overdue requests", slog.Int64("count", n))
	}
}

func (w *Maintenance) refreshOnce(ctx context.Context) {
	n, err := w.pool.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("donor pool refresh failed", slog.Any("error", err))
		}
		return
	}
	w.logger.Debug("donor pool refreshed", slog.Int("donors", n))
}
