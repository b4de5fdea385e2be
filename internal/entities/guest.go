package entities

import "time"

type Guest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FullName    string    `gorm:"size:255;not null" json:"full_name"`
	Email       string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Nationality string    `gorm:"size:100" json:"nationality,omitempty"`
	NationalID  string    `gorm:"size:255" json:"-"` // AES-GCM ciphertext when encryption is configured
	CountryFlag string    `gorm:"size:2048" json:"country_flag,omitempty"`
	Bookings    []Booking `gorm:"foreignKey:GuestID" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Guest) TableName() string {
	return "guests"
}

// ProfileComplete reports whether the guest has filled in the check-in details.
func (g *Guest) ProfileComplete() bool {
	return g.Nationality != "" && g.NationalID != ""
}
