// Package settings provides database operations for the hotel-wide booking rules.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	s, err := repo.Get()
package settings

import (
	"errors"

	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/entities"
)

// Repository handles the single settings row.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the settings row, creating it with defaults if it is missing.
func (r *Repository) Get() (*entities.Settings, error) {
	var s entities.Settings
	err := r.db.Order("id ASC").First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = entities.DefaultSettings()
		if err := r.db.Create(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update overwrites the booking rules on the existing row.
func (r *Repository) Update(values entities.Settings) (*entities.Settings, error) {
	current, err := r.Get()
	if err != nil {
		return nil, err
	}

	err = r.db.Model(current).Updates(map[string]any{
		"min_booking_length":     values.MinBookingLength,
		"max_booking_length":     values.MaxBookingLength,
		"max_guests_per_booking": values.MaxGuestsPerBooking,
		"breakfast_price":        values.BreakfastPrice,
	}).Error
	if err != nil {
		return nil, err
	}
	return r.Get()
}
