package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleStaff UserRole = "staff"
)

// User is a hotel staff account. Guests are stored separately and sign in with Google.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email            string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash     string         `gorm:"size:255" json:"-"`
	Role             UserRole       `gorm:"size:20;default:staff" json:"role"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	FailedLoginCount int            `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time     `json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}
