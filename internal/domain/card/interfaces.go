package card

import (
	"context"

	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/user"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
)

// Gateway is the customer and payment-method slice of the provider.
type Gateway interface {
	CreateCustomer(ctx context.Context, p gateway.CustomerParams) (string, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) (*gateway.PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
}

// Cipher seals card-adjacent fields at rest.
type Cipher interface {
	Encrypt(plaintext, associatedData string) (string, error)
	Decrypt(envelope, associatedData string) (string, error)
}

type userStore interface {
	GetByID(ctx context.Context, db *gorm.DB, id int64) (*user.User, error)
	SetGatewayCustomerID(ctx context.Context, db *gorm.DB, userID int64, customerID string) (bool, error)
}

type cardStore interface {
	Create(ctx context.Context, db *gorm.DB, c *Card) error
	ExistsByPaymentMethod(ctx context.Context, db *gorm.DB, paymentMethodID string) (bool, error)
	GetOwned(ctx context.Context, db *gorm.DB, userID, id int64) (*Card, error)
	ListActive(ctx context.Context, db *gorm.DB, userID int64) ([]Card, error)
	ClearDefault(ctx context.Context, db *gorm.DB, userID, keepID int64) error
	MarkDefault(ctx context.Context, db *gorm.DB, id int64) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
