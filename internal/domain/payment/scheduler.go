package payment

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const reconcileLockKey = "shortlets:reconciler:lock"

type SchedulerConfig struct {
	Interval time.Duration
	Enabled  bool
}

// Scheduler runs ReconcileStale on an interval. With a Locker, only the
// instance holding the lock sweeps on a given tick.
type Scheduler struct {
	service *Service
	locker  Locker
	log     *zap.Logger
}

func NewScheduler(service *Service, locker Locker) *Scheduler {
	return &Scheduler{
		service: service,
		locker:  locker,
		log:     service.log.Named("scheduler"),
	}
}

// RunOnce performs one sweep, or skips it when another instance holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context, lockTTL time.Duration) (*ReconcileReport, bool, error) {
	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, reconcileLockKey, lockTTL)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.log.Debug("reconcile lock held elsewhere, skipping sweep")
			return nil, false, nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), reconcileLockKey, token); err != nil {
				s.log.Warn("release reconcile lock failed", zap.Error(err))
			}
		}()
	}

	report, err := s.service.ReconcileStale(ctx)
	return report, true, err
}

// Start launches the periodic sweep. The returned channel stops it when
// closed; it is nil when the scheduler is disabled.
func (s *Scheduler) Start(ctx context.Context, cfg SchedulerConfig) chan struct{} {
	if !cfg.Enabled {
		s.log.Info("stale payment reconciler is disabled")
		return nil
	}

	stopCh := make(chan struct{})

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, _, err := s.RunOnce(ctx, cfg.Interval); err != nil {
					s.log.Error("scheduled reconcile failed", zap.Error(err))
				}
			case <-stopCh:
				s.log.Info("stale payment reconciler stopped")
				return
			case <-ctx.Done():
				s.log.Info("stale payment reconciler stopped (context done)")
				return
			}
		}
	}()

	s.log.Info("stale payment reconciler started", zap.Duration("interval", cfg.Interval))
	return stopCh
}
