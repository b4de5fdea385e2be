// Package cabins provides database operations for cabins.
//
// # Usage
//
//	repo := cabins.NewRepository(db)
//	list, err := repo.List(cabins.CapacityFilter{Min: 4, Max: 7})
package cabins

import (
	"time"

	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/entities"
)

// CapacityFilter restricts List by MaxCapacity. Zero bounds are open.
type CapacityFilter struct {
	Min int
	Max int
}

// Repository handles all cabin database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cabins repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns cabins ordered by name.
func (r *Repository) List(filter CapacityFilter) ([]entities.Cabin, error) {
	var cabins []entities.Cabin
	query := r.db.Order("name ASC")
	if filter.Min > 0 {
		query = query.Where("max_capacity >= ?", filter.Min)
	}
	if filter.Max > 0 {
		query = query.Where("max_capacity <= ?", filter.Max)
	}
	err := query.Find(&cabins).Error
	return cabins, err
}

// GetByID retrieves a cabin by ID.
func (r *Repository) GetByID(id uint) (*entities.Cabin, error) {
	var cabin entities.Cabin
	err := r.db.First(&cabin, id).Error
	if err != nil {
		return nil, err
	}
	return &cabin, nil
}

// GetWithBookings loads a cabin together with its non-cancelled bookings that end
// after from, ordered by check-in date.
func (r *Repository) GetWithBookings(id uint, from time.Time) (*entities.Cabin, error) {
	var cabin entities.Cabin
	err := r.db.Preload("Bookings", func(db *gorm.DB) *gorm.DB {
		return db.Where("status <> ? AND check_out_date > ?", entities.BookingStatusCancelled, from).
			Order("check_in_date ASC")
	}).First(&cabin, id).Error
	if err != nil {
		return nil, err
	}
	return &cabin, nil
}

// Create inserts a new cabin.
func (r *Repository) Create(cabin *entities.Cabin) error {
	return r.db.Omit("Bookings").Create(cabin).Error
}

// Update saves every column of an existing cabin.
func (r *Repository) Update(cabin *entities.Cabin) error {
	return r.db.Omit("Bookings").Save(cabin).Error
}

// Delete removes a cabin and every booking attached to it.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cabin_id = ?", id).Delete(&entities.Booking{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Cabin{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IDs returns every cabin ID. Used for sitemaps and seeding.
func (r *Repository) IDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.Cabin{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// Count returns the number of cabins.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Cabin{}).Count(&count).Error
	return count, err
}

// NameTaken reports whether another cabin already uses name.
func (r *Repository) NameTaken(name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Cabin{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}
