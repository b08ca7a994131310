package booking

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

// ConflictQuery describes a candidate stay. Pending-payment bookings only
// block when created after PendingSince; older ones are stale and left to
// the reconciler.
type ConflictQuery struct {
	PostID       int64
	Range        Range
	PendingSince time.Time
	ExcludeID    int64
}

type ListFilter struct {
	UserID int64
	PostID int64
	Status Status
	Limit  int
	Offset int
}

// Repository is stateless; every method takes the handle to run on so the
// coordinator can pass its transaction.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// FindConflict returns the first blocking booking overlapping q, or nil.
func (r *Repository) FindConflict(ctx context.Context, db *gorm.DB, q ConflictQuery) (*Booking, error) {
	query := db.WithContext(ctx).
		Model(&Booking{}).
		Where("post_id = ?", q.PostID).
		Where("start_date <= ? AND end_date >= ?", q.Range.End, q.Range.Start).
		Where("(status IN ? OR (status = ? AND created_at > ?))",
			[]Status{StatusConfirmed, StatusActive},
			StatusPendingPayment,
			q.PendingSince,
		)
	if q.ExcludeID != 0 {
		query = query.Where("id <> ?", q.ExcludeID)
	}

	var found []Booking
	if err := query.Order("id").Limit(1).Find(&found).Error; err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r *Repository) Create(ctx context.Context, db *gorm.DB, b *Booking) error {
	return db.WithContext(ctx).Create(b).Error
}

func (r *Repository) GetByID(ctx context.Context, db *gorm.DB, id int64) (*Booking, error) {
	var b Booking
	if err := db.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "booking not found")
		}
		return nil, err
	}
	return &b, nil
}

// GetForUpdate locks the row on PostgreSQL; SQLite ignores the clause.
func (r *Repository) GetForUpdate(ctx context.Context, db *gorm.DB, id int64) (*Booking, error) {
	var b Booking
	err := db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "booking not found")
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) List(ctx context.Context, db *gorm.DB, f ListFilter) ([]Booking, int64, error) {
	query := db.WithContext(ctx).Model(&Booking{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.PostID != 0 {
		query = query.Where("post_id = ?", f.PostID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Booking
	if err := query.Order("created_at desc, id desc").Limit(f.Limit).Offset(f.Offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) ListPendingByPayment(ctx context.Context, db *gorm.DB, paymentID int64) ([]Booking, error) {
	var items []Booking
	err := db.WithContext(ctx).
		Where("payment_id = ? AND status = ?", paymentID, StatusPendingPayment).
		Order("id").
		Find(&items).Error
	return items, err
}

// ConfirmPending moves a pending_payment booking to confirmed. It reports
// false if the booking had already left pending_payment.
func (r *Repository) ConfirmPending(ctx context.Context, db *gorm.DB, id int64, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusPendingPayment).
		Updates(map[string]any{
			"status":       StatusConfirmed,
			"confirmed_at": at,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *Repository) CancelPending(ctx context.Context, db *gorm.DB, id int64, reason string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, StatusPendingPayment).
		Updates(map[string]any{
			"status":              StatusCancelled,
			"cancelled_at":        at,
			"cancellation_reason": reason,
		})
	return res.RowsAffected == 1, res.Error
}

// CancelPendingByPayment cancels every pending_payment booking funded by
// paymentID. Confirmed and active bookings are left alone.
func (r *Repository) CancelPendingByPayment(ctx context.Context, db *gorm.DB, paymentID int64, reason string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Model(&Booking{}).
		Where("payment_id = ? AND status = ?", paymentID, StatusPendingPayment).
		Updates(map[string]any{
			"status":              StatusCancelled,
			"cancelled_at":        at,
			"cancellation_reason": reason,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) UpdateStatus(ctx context.Context, db *gorm.DB, b *Booking) error {
	return db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":              b.Status,
			"confirmed_at":        b.ConfirmedAt,
			"cancelled_at":        b.CancelledAt,
			"cancellation_reason": b.CancellationReason,
		}).Error
}
