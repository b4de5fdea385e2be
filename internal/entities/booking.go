package entities

import "time"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCheckedIn  BookingStatus = "checked_in"
	BookingStatusCheckedOut BookingStatus = "checked_out"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// AllBookingStatuses lists statuses in lifecycle order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCheckedIn,
	BookingStatusCheckedOut,
	BookingStatusCancelled,
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	for _, known := range AllBookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Blocking reports whether a booking in this status occupies its dates.
func (s BookingStatus) Blocking() bool {
	return s != BookingStatusCancelled
}

type Booking struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	CabinID        uint          `gorm:"index:idx_bookings_cabin_dates;not null" json:"cabin_id"`
	GuestID        uint          `gorm:"index;not null" json:"guest_id"`
	CheckInDate    time.Time     `gorm:"index:idx_bookings_cabin_dates;not null" json:"check_in_date"`
	CheckOutDate   time.Time     `gorm:"index:idx_bookings_cabin_dates;not null" json:"check_out_date"`
	NumNights      int           `gorm:"not null" json:"num_nights"`
	NumberOfGuests int           `gorm:"not null" json:"number_of_guests"`
	CabinPrice     int           `gorm:"not null" json:"cabin_price"`
	ExtrasPrice    int           `gorm:"not null;default:0" json:"extras_price"`
	TotalPrice     int           `gorm:"not null" json:"total_price"`
	HasBreakfast   bool          `json:"has_breakfast"`
	IsPaid         bool          `json:"is_paid"`
	Status         BookingStatus `gorm:"index;size:20;not null;default:pending" json:"status"`
	Observations   string        `gorm:"type:text" json:"observations,omitempty"`
	Cabin          Cabin         `gorm:"foreignKey:CabinID" json:"cabin,omitempty"`
	Guest          Guest         `gorm:"foreignKey:GuestID" json:"guest,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsPast reports whether the stay started before the day containing now.
func (b *Booking) IsPast(now time.Time) bool {
	return b.CheckInDate.Before(StartOfDay(now))
}

// IsUpcoming reports whether the stay starts today or later.
func (b *Booking) IsUpcoming(now time.Time) bool {
	return !b.IsPast(now)
}

// Editable reports whether the guest may still change or cancel the booking.
func (b *Booking) Editable(now time.Time) bool {
	if b.IsPast(now) {
		return false
	}
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// DateRange is a half-open [From, To) span of nights.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// StartOfDay truncates t to UTC midnight. All booking dates are stored this way.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NightsBetween counts the nights between two dates.
func NightsBetween(from, to time.Time) int {
	return int(StartOfDay(to).Sub(StartOfDay(from)).Hours() / 24)
}
