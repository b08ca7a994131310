package user

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleSupport Role = "support"
)

// IsStaff reports whether role may use the back-office endpoints.
func IsStaff(role string) bool {
	return role == string(RoleAdmin) || role == string(RoleSupport)
}

type User struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Username          string    `gorm:"size:100;not null" json:"username"`
	Role              Role      `gorm:"size:20;not null;default:user" json:"role"`
	GatewayCustomerID *string   `gorm:"size:255" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }
