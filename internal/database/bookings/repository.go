// Package bookings provides database operations for reservations, including the
// date-range overlap query that backs availability.
package bookings

import (
	"time"

	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/entities"
)

// ListFilter narrows the staff booking list.
type ListFilter struct {
	Status  entities.BookingStatus // empty means any
	CabinID uint
	Limit   int
	Offset  int
}

// Repository handles all booking database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn with a repository bound to a single database transaction.
// The overlap check and the insert that depends on it belong in the same call.
func (r *Repository) Transaction(fn func(tx *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Create inserts a new booking.
func (r *Repository) Create(booking *entities.Booking) error {
	return r.db.Omit("Cabin", "Guest").Create(booking).Error
}

// Update saves every column of an existing booking.
func (r *Repository) Update(booking *entities.Booking) error {
	return r.db.Omit("Cabin", "Guest").Save(booking).Error
}

// Delete removes a booking. Returns gorm.ErrRecordNotFound if nothing was deleted.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Booking{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetByID retrieves a booking with its cabin and guest.
func (r *Repository) GetByID(id uint) (*entities.Booking, error) {
	var booking entities.Booking
	err := r.db.Preload("Cabin").Preload("Guest").First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListForGuest returns a guest's bookings, most recent check-in first.
func (r *Repository) ListForGuest(guestID uint) ([]entities.Booking, error) {
	var bookings []entities.Booking
	err := r.db.Preload("Cabin").
		Where("guest_id = ?", guestID).
		Order("check_in_date DESC").
		Find(&bookings).Error
	return bookings, err
}

// List returns bookings for staff with the total matching count.
func (r *Repository) List(filter ListFilter) ([]entities.Booking, int64, error) {
	var bookings []entities.Booking
	var total int64

	query := r.db.Model(&entities.Booking{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CabinID > 0 {
		query = query.Where("cabin_id = ?", filter.CabinID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	err := query.Preload("Cabin").Preload("Guest").
		Order("check_in_date DESC").
		Limit(limit).Offset(offset).
		Find(&bookings).Error
	return bookings, total, err
}

// overlapping selects blocking bookings of cabinID whose stay intersects
// [checkIn, checkOut). Ranges are half-open, so a checkout on the same day as
// another check-in does not conflict.
func (r *Repository) overlapping(cabinID uint, checkIn, checkOut time.Time, excludeID uint) *gorm.DB {
	return r.db.Model(&entities.Booking{}).
		Where("cabin_id = ?", cabinID).
		Where("status <> ?", entities.BookingStatusCancelled).
		Where("check_in_date < ? AND check_out_date > ?", checkOut, checkIn).
		Where("id <> ?", excludeID)
}

// CountOverlapping counts blocking bookings that collide with the given stay.
func (r *Repository) CountOverlapping(cabinID uint, checkIn, checkOut time.Time, excludeID uint) (int64, error) {
	var count int64
	err := r.overlapping(cabinID, checkIn, checkOut, excludeID).Count(&count).Error
	return count, err
}

// BookedRanges returns the occupied [check-in, check-out) spans of a cabin that
// end after from, ordered by check-in.
func (r *Repository) BookedRanges(cabinID uint, from time.Time, excludeID uint) ([]entities.DateRange, error) {
	var rows []struct {
		CheckInDate  time.Time
		CheckOutDate time.Time
	}
	err := r.db.Model(&entities.Booking{}).
		Select("check_in_date, check_out_date").
		Where("cabin_id = ? AND status <> ? AND check_out_date > ? AND id <> ?",
			cabinID, entities.BookingStatusCancelled, from, excludeID).
		Order("check_in_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranges := make([]entities.DateRange, len(rows))
	for i, row := range rows {
		ranges[i] = entities.DateRange{From: row.CheckInDate.UTC(), To: row.CheckOutDate.UTC()}
	}
	return ranges, nil
}

// UpdateStatus sets the status of a booking.
func (r *Repository) UpdateStatus(id uint, status entities.BookingStatus) error {
	result := r.db.Model(&entities.Booking{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid flags a booking as paid.
func (r *Repository) MarkPaid(id uint, paid bool) error {
	result := r.db.Model(&entities.Booking{}).Where("id = ?", id).Update("is_paid", paid)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CancelStalePending cancels pending bookings whose check-in date is before
// the given day. Returns the number of bookings cancelled.
func (r *Repository) CancelStalePending(before time.Time) (int64, error) {
	result := r.db.Model(&entities.Booking{}).
		Where("status = ? AND check_in_date < ?", entities.BookingStatusPending, before).
		Update("status", entities.BookingStatusCancelled)
	return result.RowsAffected, result.Error
}

// CountByStatus returns how many bookings are in each status.
func (r *Repository) CountByStatus() (map[entities.BookingStatus]int64, error) {
	var rows []struct {
		Status entities.BookingStatus
		Count  int64
	}
	err := r.db.Model(&entities.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entities.BookingStatus]int64, len(entities.AllBookingStatuses))
	for _, s := range entities.AllBookingStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// PaidRevenueSince sums total_price of paid, non-cancelled bookings created since the given time.
func (r *Repository) PaidRevenueSince(since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&entities.Booking{}).
		Select("COALESCE(SUM(total_price), 0)").
		Where("is_paid = ? AND status <> ? AND created_at >= ?", true, entities.BookingStatusCancelled, since).
		Scan(&total).Error
	return total, err
}

// ArrivalsOn lists blocking bookings checking in on day.
func (r *Repository) ArrivalsOn(day time.Time) ([]entities.Booking, error) {
	var bookings []entities.Booking
	start := entities.StartOfDay(day)
	err := r.db.Preload("Cabin").Preload("Guest").
		Where("check_in_date >= ? AND check_in_date < ?", start, start.AddDate(0, 0, 1)).
		Where("status IN ?", []entities.BookingStatus{entities.BookingStatusPending, entities.BookingStatusConfirmed}).
		Order("check_in_date ASC").
		Find(&bookings).Error
	return bookings, err
}
