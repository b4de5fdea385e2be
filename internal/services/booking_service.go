package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/database/bookings"
	"github.com/wildoasis/booking/internal/database/cabins"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/database/settings"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/metrics"
)

const (
	msgEndBeforeStart = "End date must be after start date"
	msgAlreadyBooked  = "This cabin is already booked for the selected dates."
)

// BookingInput is the reservation form. Dates are truncated to UTC midnight.
type BookingInput struct {
	CabinID        uint      `json:"cabin_id" validate:"required"`
	CheckIn        time.Time `json:"check_in_date"`
	CheckOut       time.Time `json:"check_out_date"`
	NumberOfGuests int       `json:"number_of_guests" validate:"gte=1"`
	HasBreakfast   bool      `json:"has_breakfast"`
	Observations   string    `json:"observations" validate:"max=1000"`
}

// allowedTransitions is the staff-driven booking lifecycle.
var allowedTransitions = map[entities.BookingStatus][]entities.BookingStatus{
	entities.BookingStatusPending:   {entities.BookingStatusConfirmed, entities.BookingStatusCancelled},
	entities.BookingStatusConfirmed: {entities.BookingStatusCheckedIn, entities.BookingStatusCancelled},
	entities.BookingStatusCheckedIn: {entities.BookingStatusCheckedOut},
}

// CanTransition reports whether staff may move a booking from one status to another.
func CanTransition(from, to entities.BookingStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s entities.BookingStatus) []entities.BookingStatus {
	return allowedTransitions[s]
}

type BookingService struct {
	bookings *bookings.Repository
	cabins   *cabins.Repository
	guests   *guests.Repository
	settings *settings.Repository
	audit    AuditLogger
	clock    clockwork.Clock
}

func NewBookingService(bookingRepo *bookings.Repository, cabinRepo *cabins.Repository, guestRepo *guests.Repository, settingsRepo *settings.Repository, auditor AuditLogger, clock clockwork.Clock) *BookingService {
	if auditor == nil {
		auditor = nopAudit{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BookingService{
		bookings: bookingRepo,
		cabins:   cabinRepo,
		guests:   guestRepo,
		settings: settingsRepo,
		audit:    auditor,
		clock:    clock,
	}
}

// Today is the current day at UTC midnight.
func (s *BookingService) Today() time.Time {
	return entities.StartOfDay(s.clock.Now())
}

// checkedStay is a validated, priced stay ready to be written.
type checkedStay struct {
	cabin    *entities.Cabin
	checkIn  time.Time
	checkOut time.Time
	quote    Quote
	input    BookingInput
}

// checkStay runs every rule except the overlap query and returns the priced stay.
func (s *BookingService) checkStay(guestID uint, input BookingInput) (*checkedStay, error) {
	input.Observations = strings.TrimSpace(input.Observations)

	ve := NewValidationError()
	if err := validateStruct(input, ve); err != nil {
		return nil, err
	}

	checkIn := entities.StartOfDay(input.CheckIn)
	checkOut := entities.StartOfDay(input.CheckOut)
	nights := 0
	switch {
	case input.CheckIn.IsZero():
		ve.Add("check_in_date", "Please select a check-in date")
	case input.CheckOut.IsZero():
		ve.Add("check_out_date", "Please select a check-out date")
	case !checkOut.After(checkIn):
		ve.Add("check_out_date", msgEndBeforeStart)
	default:
		nights = entities.NightsBetween(checkIn, checkOut)
	}
	if !input.CheckIn.IsZero() && checkIn.Before(s.Today()) {
		ve.Add("check_in_date", "Check-in date cannot be in the past")
	}

	rules, err := s.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if nights > 0 && (nights < rules.MinBookingLength || nights > rules.MaxBookingLength) {
		ve.Add("check_out_date", fmt.Sprintf("Stays must be between %d and %d nights", rules.MinBookingLength, rules.MaxBookingLength))
	}

	var cabin *entities.Cabin
	if input.CabinID > 0 {
		cabin, err = s.cabins.GetByID(input.CabinID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ve.Add("cabin_id", "Cabin with this ID not found")
			cabin = nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to load cabin: %w", err)
		}
	}
	if cabin != nil && input.NumberOfGuests >= 1 {
		limit := min(cabin.MaxCapacity, rules.MaxGuestsPerBooking)
		if input.NumberOfGuests > limit {
			ve.Add("number_of_guests", fmt.Sprintf("This cabin sleeps at most %d guests", limit))
		}
	}

	if _, err := s.guests.GetByID(guestID); errors.Is(err, gorm.ErrRecordNotFound) {
		ve.Add("guest_id", "Guest with this ID not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	return &checkedStay{
		cabin:    cabin,
		checkIn:  checkIn,
		checkOut: checkOut,
		quote:    PriceStay(cabin, rules, nights, input.NumberOfGuests, input.HasBreakfast),
		input:    input,
	}, nil
}

// ensureFree runs the overlap query inside tx.
func ensureFree(tx *bookings.Repository, stay *checkedStay, excludeID uint) error {
	n, err := tx.CountOverlapping(stay.cabin.ID, stay.checkIn, stay.checkOut, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check availability: %w", err)
	}
	if n > 0 {
		ve := NewValidationError()
		ve.Add("cabin_id", msgAlreadyBooked)
		return ve
	}
	return nil
}

func (stay *checkedStay) apply(b *entities.Booking) {
	b.CabinID = stay.cabin.ID
	b.CheckInDate = stay.checkIn
	b.CheckOutDate = stay.checkOut
	b.NumNights = stay.quote.Nights
	b.NumberOfGuests = stay.input.NumberOfGuests
	b.CabinPrice = stay.quote.CabinPrice
	b.ExtrasPrice = stay.quote.ExtrasPrice
	b.TotalPrice = stay.quote.TotalPrice
	b.HasBreakfast = stay.input.HasBreakfast
	b.Observations = stay.input.Observations
}

func bookingMetadata(b *entities.Booking) map[string]any {
	return map[string]any{
		"cabin_id":       b.CabinID,
		"check_in_date":  b.CheckInDate.Format("2006-01-02"),
		"check_out_date": b.CheckOutDate.Format("2006-01-02"),
		"total_price":    b.TotalPrice,
	}
}

// CreateBooking validates, prices and stores a pending reservation for guestID.
func (s *BookingService) CreateBooking(guestID uint, input BookingInput) (*entities.Booking, error) {
	actor := audit.GuestActor(guestID, "")

	booking, err := s.createBooking(guestID, input)
	metrics.RecordBookingOperation("create", err)
	if err != nil {
		if _, invalid := AsValidationError(err); !invalid {
			s.audit.LogBooking(actor, "booking_create", 0, "Booking failed", nil, err)
		}
		return nil, err
	}

	metrics.RecordBookedNights(booking.NumNights)
	s.audit.LogBooking(actor, "booking_create", booking.ID,
		fmt.Sprintf("Booked cabin %d for %d nights", booking.CabinID, booking.NumNights),
		bookingMetadata(booking), nil)
	return booking, nil
}

func (s *BookingService) createBooking(guestID uint, input BookingInput) (*entities.Booking, error) {
	stay, err := s.checkStay(guestID, input)
	if err != nil {
		return nil, err
	}

	booking := &entities.Booking{
		GuestID: guestID,
		Status:  entities.BookingStatusPending,
		IsPaid:  false,
	}
	stay.apply(booking)

	err = s.bookings.Transaction(func(tx *bookings.Repository) error {
		if err := ensureFree(tx, stay, 0); err != nil {
			return err
		}
		return tx.Create(booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ownedBooking loads a booking and checks that guestID owns it.
func (s *BookingService) ownedBooking(guestID, bookingID uint) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %d: %w", bookingID, err)
	}
	if booking.GuestID != guestID {
		return nil, ErrNotAuthorized
	}
	return booking, nil
}

// GetGuestBooking returns one of the guest's own bookings.
func (s *BookingService) GetGuestBooking(guestID, bookingID uint) (*entities.Booking, error) {
	return s.ownedBooking(guestID, bookingID)
}

// ListGuestBookings returns the guest's bookings, most recent check-in first.
func (s *BookingService) ListGuestBookings(guestID uint) ([]entities.Booking, error) {
	return s.bookings.ListForGuest(guestID)
}

// UpdateBooking lets a guest change dates, party size, breakfast and notes of an
// upcoming booking. The cabin cannot be changed.
func (s *BookingService) UpdateBooking(guestID, bookingID uint, input BookingInput) (*entities.Booking, error) {
	actor := audit.GuestActor(guestID, "")

	booking, err := s.updateBooking(guestID, bookingID, input)
	metrics.RecordBookingOperation("update", err)
	if err != nil {
		if _, invalid := AsValidationError(err); !invalid {
			s.audit.LogBooking(actor, "booking_update", bookingID, "Update rejected", nil, err)
		}
		return nil, err
	}

	s.audit.LogBooking(actor, "booking_update", booking.ID, "Reservation changed", bookingMetadata(booking), nil)
	return booking, nil
}

func (s *BookingService) updateBooking(guestID, bookingID uint, input BookingInput) (*entities.Booking, error) {
	booking, err := s.ownedBooking(guestID, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Editable(s.clock.Now()) {
		return nil, ErrBookingLocked
	}

	input.CabinID = booking.CabinID
	stay, err := s.checkStay(guestID, input)
	if err != nil {
		return nil, err
	}
	stay.apply(booking)

	err = s.bookings.Transaction(func(tx *bookings.Repository) error {
		if err := ensureFree(tx, stay, booking.ID); err != nil {
			return err
		}
		return tx.Update(booking)
	})
	if err != nil {
		return nil, err
	}
	booking.Cabin = *stay.cabin
	return booking, nil
}

// CancelBooking cancels one of the guest's upcoming bookings, freeing its dates.
func (s *BookingService) CancelBooking(guestID, bookingID uint) error {
	err := s.cancelBooking(guestID, bookingID)
	metrics.RecordBookingOperation("cancel", err)
	s.audit.LogBooking(audit.GuestActor(guestID, ""), "booking_cancel", bookingID, "Cancelled by guest", nil, err)
	return err
}

func (s *BookingService) cancelBooking(guestID, bookingID uint) error {
	booking, err := s.ownedBooking(guestID, bookingID)
	if err != nil {
		return err
	}
	if !booking.Editable(s.clock.Now()) {
		return ErrBookingLocked
	}
	return s.bookings.UpdateStatus(bookingID, entities.BookingStatusCancelled)
}

// ListBookings returns bookings for staff, optionally filtered by status.
func (s *BookingService) ListBookings(status string, limit, offset int) ([]entities.Booking, int64, error) {
	filter := bookings.ListFilter{Limit: limit, Offset: offset}
	if st := entities.BookingStatus(status); st.Valid() {
		filter.Status = st
	}
	return s.bookings.List(filter)
}

// GetBooking returns any booking. Staff only.
func (s *BookingService) GetBooking(id uint) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %d: %w", id, err)
	}
	return booking, nil
}

// SetStatus moves a booking along its lifecycle. Staff only.
func (s *BookingService) SetStatus(actor audit.Actor, id uint, status entities.BookingStatus) (*entities.Booking, error) {
	booking, err := s.GetBooking(id)
	if err == nil && !CanTransition(booking.Status, status) {
		err = fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
	}
	if err == nil {
		err = s.bookings.UpdateStatus(id, status)
	}
	metrics.RecordBookingOperation("status_"+string(status), err)
	s.audit.LogBooking(actor, "booking_status", id, "Status set to "+string(status), nil, err)
	if err != nil {
		return nil, err
	}
	booking.Status = status
	return booking, nil
}

// MarkPaid records payment for a booking. Staff only.
func (s *BookingService) MarkPaid(actor audit.Actor, id uint, paid bool) error {
	err := s.bookings.MarkPaid(id, paid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrBookingNotFound
	}
	metrics.RecordBookingOperation("mark_paid", err)
	s.audit.LogBooking(actor, "booking_paid", id, fmt.Sprintf("Paid set to %t", paid), nil, err)
	return err
}

// DeleteBooking permanently removes a booking. Staff only.
func (s *BookingService) DeleteBooking(actor audit.Actor, id uint) error {
	err := s.bookings.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrBookingNotFound
	}
	metrics.RecordBookingOperation("delete", err)
	s.audit.LogBooking(actor, "booking_delete", id, "Deleted by staff", nil, err)
	return err
}

// CancelStalePending cancels pending bookings whose check-in day has passed.
func (s *BookingService) CancelStalePending() (int64, error) {
	n, err := s.bookings.CancelStalePending(s.Today())
	metrics.RecordBookingOperation("cancel_stale", err)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel stale bookings: %w", err)
	}
	metrics.RecordStaleCancelled(n)
	return n, nil
}

// Dashboard is the staff overview.
type Dashboard struct {
	StatusCounts map[entities.BookingStatus]int64
	Revenue30d   int
	Arrivals     []entities.Booking
}

// Dashboard gathers counts, recent revenue and today's arrivals.
func (s *BookingService) Dashboard() (*Dashboard, error) {
	counts, err := s.bookings.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	revenue, err := s.bookings.PaidRevenueSince(s.Today().AddDate(0, 0, -30))
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	arrivals, err := s.bookings.ArrivalsOn(s.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to list arrivals: %w", err)
	}
	return &Dashboard{StatusCounts: counts, Revenue30d: int(revenue), Arrivals: arrivals}, nil
}
