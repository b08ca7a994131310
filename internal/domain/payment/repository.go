package payment

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

type ListFilter struct {
	UserID          int64
	Status          Status
	Method          Method
	TransactionType TransactionType
	Limit           int
	Offset          int
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Create(ctx context.Context, db *gorm.DB, p *Payment) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *Repository) GetByID(ctx context.Context, db *gorm.DB, id int64) (*Payment, error) {
	var p Payment
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "payment not found")
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ExistsByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&Payment{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) List(ctx context.Context, db *gorm.DB, f ListFilter) ([]Payment, int64, error) {
	query := db.WithContext(ctx).Model(&Payment{})
	if f.UserID != 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Method != "" {
		query = query.Where("payment_method = ?", f.Method)
	}
	if f.TransactionType != "" {
		query = query.Where("transaction_type = ?", f.TransactionType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Payment
	if err := query.Order("created_at desc, id desc").Limit(f.Limit).Offset(f.Offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListStalePending returns pending payments created before cutoff with
// id > afterID, oldest id first.
func (r *Repository) ListStalePending(ctx context.Context, db *gorm.DB, cutoff time.Time, afterID int64, limit int) ([]Payment, error) {
	var items []Payment
	err := db.WithContext(ctx).
		Where("status = ? AND created_at < ? AND id > ?", StatusPending, cutoff, afterID).
		Order("id").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// Resolve moves a pending payment to status. It reports false when the
// payment is no longer pending, so concurrent sweeps apply at most once.
func (r *Repository) Resolve(ctx context.Context, db *gorm.DB, id int64, status Status, completedAt *time.Time) (bool, error) {
	updates := map[string]any{"status": status}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetStatus is the unconditional back-office status change.
func (r *Repository) SetStatus(ctx context.Context, db *gorm.DB, p *Payment) error {
	return db.WithContext(ctx).
		Model(p).
		Select("status", "completed_at", "updated_at").
		Updates(p).Error
}
