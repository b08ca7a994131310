package payment

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

type Method string

const (
	MethodCreditCard    Method = "credit_card"
	MethodDebitCard     Method = "debit_card"
	MethodBankTransfer  Method = "bank_transfer"
	MethodDigitalWallet Method = "digital_wallet"
)

type TransactionType string

const (
	TransactionSale   TransactionType = "sale"
	TransactionRental TransactionType = "rental"
)

// Payment is a ledger row. Amount is in minor units of Currency.
// TransactionID holds the gateway intent id and is unique.
type Payment struct {
	ID              int64           `gorm:"primaryKey" json:"id"`
	Amount          int64           `gorm:"not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	PaymentMethod   Method          `gorm:"size:20;not null" json:"payment_method"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	PostID          *int64          `gorm:"index" json:"post_id,omitempty"`
	Status          Status          `gorm:"size:20;not null;index:idx_payments_status_created,priority:1" json:"status"`
	TransactionID   *string         `gorm:"size:255;uniqueIndex" json:"transaction_id,omitempty"`
	TransactionType TransactionType `gorm:"size:10;not null;index" json:"transaction_type"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	Metadata        datatypes.JSON  `json:"metadata,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `gorm:"index:idx_payments_status_created,priority:2" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
