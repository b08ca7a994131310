package listing

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) GetByID(ctx context.Context, db *gorm.DB, id int64) (*Post, error) {
	var p Post
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.ErrNotFound, "listing not found")
		}
		return nil, err
	}
	return &p, nil
}

// MarkPaid flips is_paid on a sale listing. It reports false when the
// listing was already paid, so a listing is sold at most once.
func (r *Repository) MarkPaid(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&Post{}).
		Where("id = ? AND is_paid = ?", id, false).
		Update("is_paid", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
