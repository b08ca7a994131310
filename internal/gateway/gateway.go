package gateway

import (
	"encoding/json"
	"errors"
)

var (
	// ErrUnavailable covers network failures, timeouts and 5xx answers.
	ErrUnavailable = errors.New("gateway unavailable")
	// ErrRejected is a definitive refusal (bad token, declined card).
	ErrRejected         = errors.New("gateway rejected request")
	ErrNotFound         = errors.New("gateway object not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

const (
	StatusSucceeded             = "succeeded"
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusCanceled              = "canceled"
	StatusProcessing            = "processing"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Metadata keys written on every intent.
const (
	MetaUserID       = "userId"
	MetaPostID       = "postId"
	MetaBookingDates = "bookingDates"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == StatusSucceeded
}

type CreateIntentParams struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
	// IdempotencyKey is forwarded so client retries do not open duplicate intents.
	IdempotencyKey string
}

type CustomerParams struct {
	Email string
	Name  string
	// UserID is stored in customer metadata.
	UserID int64
}

type PaymentMethod struct {
	ID         string
	Last4      string
	Brand      string
	ExpMonth   int
	ExpYear    int
	HolderName string
}

// Event is a verified webhook event. Object holds the raw data.object JSON.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}
