package entities

import (
	"time"
)

// Settings holds the hotel-wide booking rules. There is exactly one row.
type Settings struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	MinBookingLength    int       `gorm:"not null" json:"min_booking_length"`
	MaxBookingLength    int       `gorm:"not null" json:"max_booking_length"`
	MaxGuestsPerBooking int       `gorm:"not null" json:"max_guests_per_booking"`
	BreakfastPrice      int       `gorm:"not null" json:"breakfast_price"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (Settings) TableName() string {
	return "settings"
}

// DefaultSettings mirrors the values the site launched with.
func DefaultSettings() Settings {
	return Settings{
		MinBookingLength:    3,
		MaxBookingLength:    30,
		MaxGuestsPerBooking: 10,
		BreakfastPrice:      15,
	}
}
