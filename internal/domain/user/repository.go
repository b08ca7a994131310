package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

// Repository reads users and records their gateway customer reference.
// Every call takes the handle to run on so callers can pass a transaction.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) GetByID(ctx context.Context, db *gorm.DB, id int64) (*User, error) {
	var u User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

// SetGatewayCustomerID stores customerID only when the user has none yet.
// It reports false when another writer got there first.
func (r *Repository) SetGatewayCustomerID(ctx context.Context, db *gorm.DB, userID int64, customerID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&User{}).
		Where("id = ? AND gateway_customer_id IS NULL", userID).
		Update("gateway_customer_id", customerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
