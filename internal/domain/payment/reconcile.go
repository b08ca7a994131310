package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/booking"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

const reasonPaymentFailed = "payment_failed"

type verdict int

const (
	verdictFail verdict = iota
	verdictComplete
	verdictDefer
)

var errAlreadyResolved = errors.New("payment already resolved")

// ReconcileStale sweeps pending payments older than the stale threshold and
// settles each against the gateway. A failure on one payment is logged and
// counted; it never stops the sweep.
func (s *Service) ReconcileStale(ctx context.Context) (*ReconcileReport, error) {
	start := time.Now()
	defer func() { s.metrics.SweepFinished(time.Since(start)) }()

	report := &ReconcileReport{}
	cutoff := s.now().Add(-s.cfg.StaleAfter)
	log := s.log.Named("reconcile")

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := s.payments.ListStalePending(ctx, s.db, cutoff, afterID, s.cfg.BatchSize)
		if err != nil {
			return report, apperror.Wrap(apperror.ErrStorage, "failed to load stale payments", err)
		}

		for i := range batch {
			p := &batch[i]
			afterID = p.ID
			report.Scanned++

			result, err := s.reconcileOne(ctx, p)
			switch {
			case errors.Is(err, errAlreadyResolved):
				s.metrics.Reconciled("skipped")
			case err != nil:
				report.Errors++
				s.metrics.Reconciled("error")
				log.Error("reconcile payment failed", zap.Int64("payment_id", p.ID), zap.Error(err))
			case result == verdictDefer:
				report.Deferred++
				s.metrics.Reconciled("deferred")
			case result == verdictComplete:
				report.Resolved++
				report.Completed++
				s.metrics.Reconciled("completed")
			default:
				report.Resolved++
				report.Failed++
				s.metrics.Reconciled("failed")
			}
		}

		if len(batch) < s.cfg.BatchSize {
			break
		}
	}

	log.Info("stale payment sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("resolved", report.Resolved),
		zap.Int("deferred", report.Deferred),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

func (s *Service) reconcileOne(ctx context.Context, p *Payment) (verdict, error) {
	v := s.judge(ctx, p)
	if v == verdictDefer {
		return v, nil
	}

	err := database.RunSerializable(ctx, s.db, s.cfg.ConfirmAttempts, func(tx *gorm.DB) error {
		now := s.now()
		if v == verdictFail {
			ok, err := s.payments.Resolve(ctx, tx, p.ID, StatusFailed, nil)
			if err != nil {
				return err
			}
			if !ok {
				return errAlreadyResolved
			}
			_, err = s.bookings.CancelPendingByPayment(ctx, tx, p.ID, reasonPaymentFailed, now)
			return err
		}

		ok, err := s.payments.Resolve(ctx, tx, p.ID, StatusCompleted, &now)
		if err != nil {
			return err
		}
		if !ok {
			return errAlreadyResolved
		}

		pending, err := s.bookings.ListPendingByPayment(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		for i := range pending {
			b := &pending[i]
			conflict, err := s.bookings.FindConflict(ctx, tx, booking.ConflictQuery{
				PostID:       b.PostID,
				Range:        b.Range(),
				PendingSince: now.Add(-s.cfg.StaleAfter),
				ExcludeID:    b.ID,
			})
			if err != nil {
				return err
			}
			if conflict != nil {
				if _, err := s.bookings.CancelPending(ctx, tx, b.ID, booking.ReasonDatesUnavailable, now); err != nil {
					return err
				}
				continue
			}
			if _, err := s.bookings.ConfirmPending(ctx, tx, b.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
	return v, err
}

// judge asks the gateway for the payment's fate. It runs outside any store
// transaction.
func (s *Service) judge(ctx context.Context, p *Payment) verdict {
	if p.TransactionID == nil || *p.TransactionID == "" {
		return verdictFail
	}

	intent, err := s.gateway.RetrieveIntent(ctx, *p.TransactionID)
	switch {
	case err == nil && intent.Succeeded():
		return verdictComplete
	case err == nil, errors.Is(err, gateway.ErrNotFound):
		return verdictFail
	case s.cfg.UnreachablePolicy == UnreachableDefer:
		s.log.Warn("gateway unreachable, deferring payment",
			zap.Int64("payment_id", p.ID),
			zap.Error(err),
		)
		return verdictDefer
	default:
		s.log.Warn("gateway unreachable, failing payment",
			zap.Int64("payment_id", p.ID),
			zap.Error(err),
		)
		return verdictFail
	}
}
