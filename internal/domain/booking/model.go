package booking

import "time"

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusRejected       Status = "rejected"
)

const ReasonDatesUnavailable = "dates_unavailable"

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Blocking statuses hold the dates; no two blocking bookings on a listing
// may overlap.
func (s Status) Blocking() bool {
	return s == StatusPendingPayment || s == StatusConfirmed || s == StatusActive
}

type Booking struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	PostID             int64      `gorm:"not null;index:idx_bookings_post_dates,priority:1" json:"post_id"`
	UserID             int64      `gorm:"not null;index" json:"user_id"`
	StartDate          time.Time  `gorm:"not null;index:idx_bookings_post_dates,priority:2" json:"start_date"`
	EndDate            time.Time  `gorm:"not null;index:idx_bookings_post_dates,priority:3" json:"end_date"`
	TotalAmount        int64      `gorm:"not null" json:"total_amount"`
	Currency           string     `gorm:"size:3;not null" json:"currency"`
	Status             Status     `gorm:"size:20;not null;index" json:"status"`
	Guests             int        `gorm:"not null;default:1" json:"guests"`
	SpecialRequests    string     `gorm:"type:text" json:"special_requests,omitempty"`
	PaymentID          *int64     `gorm:"index" json:"payment_id,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `gorm:"size:100" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) Range() Range {
	return Range{Start: b.StartDate, End: b.EndDate}
}
