package listing

import "time"

type Type string

const (
	TypeRent Type = "rent"
	TypeBuy  Type = "buy"
)

// Post is a property listing. Only the fields the payment flow reads are
// modelled here; listing CRUD lives elsewhere.
type Post struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	OwnerID   int64     `gorm:"not null;index" json:"owner_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Price     int64     `gorm:"not null" json:"price"`
	Type      Type      `gorm:"size:10;not null" json:"type"`
	IsPaid    bool      `gorm:"not null;default:false" json:"is_paid"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

func (p *Post) IsOwnedBy(userID int64) bool {
	return p.OwnerID == userID
}
