package payment

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/booking"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
)

// Gateway is the slice of the payment provider this package needs.
type Gateway interface {
	CreateIntent(ctx context.Context, p gateway.CreateIntentParams) (*gateway.Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*gateway.Event, error)
}

type listingStore interface {
	GetByID(ctx context.Context, db *gorm.DB, id int64) (*listing.Post, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id int64) (bool, error)
}

type bookingStore interface {
	FindConflict(ctx context.Context, db *gorm.DB, q booking.ConflictQuery) (*booking.Booking, error)
	Create(ctx context.Context, db *gorm.DB, b *booking.Booking) error
	ListPendingByPayment(ctx context.Context, db *gorm.DB, paymentID int64) ([]booking.Booking, error)
	ConfirmPending(ctx context.Context, db *gorm.DB, id int64, at time.Time) (bool, error)
	CancelPending(ctx context.Context, db *gorm.DB, id int64, reason string, at time.Time) (bool, error)
	CancelPendingByPayment(ctx context.Context, db *gorm.DB, paymentID int64, reason string, at time.Time) (int64, error)
}

type paymentStore interface {
	Create(ctx context.Context, db *gorm.DB, p *Payment) error
	GetByID(ctx context.Context, db *gorm.DB, id int64) (*Payment, error)
	ExistsByTransactionID(ctx context.Context, db *gorm.DB, transactionID string) (bool, error)
	List(ctx context.Context, db *gorm.DB, f ListFilter) ([]Payment, int64, error)
	ListStalePending(ctx context.Context, db *gorm.DB, cutoff time.Time, afterID int64, limit int) ([]Payment, error)
	Resolve(ctx context.Context, db *gorm.DB, id int64, status Status, completedAt *time.Time) (bool, error)
	SetStatus(ctx context.Context, db *gorm.DB, p *Payment) error
}

// Locker guards the periodic sweep across instances.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}
