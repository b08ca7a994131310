package card

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Create(ctx context.Context, db *gorm.DB, c *Card) error {
	return db.WithContext(ctx).Create(c).Error
}

// ExistsByPaymentMethod reports whether any card row mirrors the gateway
// payment method.
func (r *Repository) ExistsByPaymentMethod(ctx context.Context, db *gorm.DB, paymentMethodID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&Card{}).
		Where("gateway_payment_method_id = ?", paymentMethodID).
		Count(&count).Error
	return count > 0, err
}

// GetOwned loads an active card of userID. A card owned by someone else is
// reported as not found.
func (r *Repository) GetOwned(ctx context.Context, db *gorm.DB, userID, id int64) (*Card, error) {
	var c Card
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "card not found")
		}
		return nil, err
	}
	return &c, nil
}

// ListActive returns the user's cards, default first then newest.
func (r *Repository) ListActive(ctx context.Context, db *gorm.DB, userID int64) ([]Card, error) {
	var cards []Card
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default desc, created_at desc, id desc").
		Find(&cards).Error
	return cards, err
}

// ClearDefault drops the default flag from every card of userID except
// keepID.
func (r *Repository) ClearDefault(ctx context.Context, db *gorm.DB, userID, keepID int64) error {
	return db.WithContext(ctx).
		Model(&Card{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keepID, true).
		Update("is_default", false).Error
}

func (r *Repository) MarkDefault(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).
		Model(&Card{}).
		Where("id = ?", id).
		Update("is_default", true).Error
}

func (r *Repository) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Delete(&Card{}, id).Error
}
