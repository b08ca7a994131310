package payment

import "github.com/teslimakintunde/shortlets-backend-api/internal/domain/booking"

type DateHint struct {
	StartDate string `json:"startDate" binding:"required,stay_date"`
	EndDate   string `json:"endDate" binding:"required,stay_date"`
}

type IntentInput struct {
	Amount         float64   `json:"amount" binding:"required"`
	Currency       string    `json:"currency" binding:"omitempty,currency"`
	PostID         *int64    `json:"postId"`
	BookingDates   *DateHint `json:"bookingDates"`
	Description    string    `json:"description" binding:"max=500"`
	IdempotencyKey string    `json:"-"`
}

type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	PublishableKey  string `json:"publishableKey"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type BookingData struct {
	StartDate       string `json:"startDate" binding:"required,stay_date"`
	EndDate         string `json:"endDate" binding:"required,stay_date"`
	Guests          int    `json:"guests" binding:"omitempty,min=1,max=50"`
	SpecialRequests string `json:"specialRequests" binding:"max=1000"`
}

type ConfirmInput struct {
	PaymentIntentID string         `json:"paymentIntentId" binding:"required"`
	PostID          int64          `json:"postId" binding:"required,gt=0"`
	BookingData     *BookingData   `json:"bookingData"`
	PurchaseOptions map[string]any `json:"purchaseOptions"`
}

type ConfirmResult struct {
	Payment *Payment         `json:"payment"`
	Booking *booking.Booking `json:"booking,omitempty"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Resolved  int `json:"resolved"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Deferred  int `json:"deferred"`
	Errors    int `json:"errors"`
}
