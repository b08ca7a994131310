package card

import (
	"fmt"
	"time"
)

// Card holds display metadata for a payment method stored at the gateway.
// No card number or CVC is ever persisted; the holder name is sealed with
// the cipher before it reaches the table.
type Card struct {
	ID                     int64     `gorm:"primaryKey" json:"id"`
	UserID                 int64     `gorm:"not null;index" json:"user_id"`
	GatewayPaymentMethodID string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Last4                  string    `gorm:"size:4;not null" json:"last4"`
	Brand                  string    `gorm:"size:32" json:"brand"`
	ExpMonth               int       `json:"exp_month"`
	ExpYear                int       `json:"exp_year"`
	HolderNameEnc          string    `gorm:"type:text" json:"-"`
	IsDefault              bool      `gorm:"not null;default:false" json:"is_default"`
	IsActive               bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (Card) TableName() string { return "payment_cards" }

// View is what clients see for a stored card.
type View struct {
	ID         int64     `json:"id"`
	CardNumber string    `json:"cardNumber"`
	Last4      string    `json:"lastFour"`
	Brand      string    `json:"brand"`
	ExpMonth   int       `json:"expiryMonth"`
	ExpYear    int       `json:"expiryYear"`
	HolderName string    `json:"holderName"`
	IsDefault  bool      `json:"isDefault"`
	CreatedAt  time.Time `json:"createdAt"`
}

func MaskNumber(last4 string) string {
	return "•••• •••• •••• " + last4
}

// holderNameAD binds a sealed holder name to its owner so a ciphertext
// copied onto another user's card fails to open.
func holderNameAD(userID int64) string {
	return fmt.Sprintf("payment_card:%d", userID)
}
