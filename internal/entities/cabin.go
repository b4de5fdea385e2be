package entities

import "time"

// SizeCategory groups cabins by how many guests they sleep.
type SizeCategory string

const (
	SizeSmall  SizeCategory = "small"  // 1-3 guests
	SizeMedium SizeCategory = "medium" // 4-7 guests
	SizeLarge  SizeCategory = "large"  // 8+ guests
)

type Cabin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	MaxCapacity  int       `gorm:"not null" json:"max_capacity"`
	RegularPrice int       `gorm:"not null" json:"regular_price"`
	Discount     int       `gorm:"not null;default:0" json:"discount"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        string    `gorm:"size:2048" json:"image,omitempty"`
	ImageKey     string    `gorm:"size:512" json:"-"` // object key in the image store
	Bookings     []Booking `gorm:"foreignKey:CabinID" json:"bookings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Cabin) TableName() string {
	return "cabins"
}

// NightlyPrice is the price per night after the discount is applied.
func (c *Cabin) NightlyPrice() int {
	return c.RegularPrice - c.Discount
}

func (c *Cabin) HasDiscount() bool {
	return c.Discount > 0
}

func (c *Cabin) SizeCategory() SizeCategory {
	switch {
	case c.MaxCapacity >= 8:
		return SizeLarge
	case c.MaxCapacity >= 4:
		return SizeMedium
	default:
		return SizeSmall
	}
}

// GuestOptions returns 1..MaxCapacity for the "how many guests" select.
func (c *Cabin) GuestOptions() []int {
	opts := make([]int, 0, c.MaxCapacity)
	for i := 1; i <= c.MaxCapacity; i++ {
		opts = append(opts, i)
	}
	return opts
}
