package services

import (
	"fmt"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/database/settings"
	"github.com/wildoasis/booking/internal/entities"
)

// SettingsInput is the staff form for hotel-wide booking rules.
type SettingsInput struct {
	MinBookingLength    int `json:"min_booking_length" form:"min_booking_length" validate:"gte=1"`
	MaxBookingLength    int `json:"max_booking_length" form:"max_booking_length" validate:"gte=1,gtefield=MinBookingLength"`
	MaxGuestsPerBooking int `json:"max_guests_per_booking" form:"max_guests_per_booking" validate:"gte=1"`
	BreakfastPrice      int `json:"breakfast_price" form:"breakfast_price" validate:"gte=0"`
}

type SettingsService struct {
	repo  *settings.Repository
	audit AuditLogger
}

func NewSettingsService(repo *settings.Repository, auditor AuditLogger) *SettingsService {
	if auditor == nil {
		auditor = nopAudit{}
	}
	return &SettingsService{repo: repo, audit: auditor}
}

// Get returns the current booking rules.
func (s *SettingsService) Get() (*entities.Settings, error) {
	return s.repo.Get()
}

// Update validates and stores new booking rules.
func (s *SettingsService) Update(actor audit.Actor, input SettingsInput) (*entities.Settings, error) {
	ve := NewValidationError()
	if err := validateStruct(input, ve); err != nil {
		return nil, err
	}
	if ve.Has("max_booking_length") && input.MaxBookingLength >= 1 {
		ve.Fields["max_booking_length"] = []string{"Must be greater than or equal to the minimum stay"}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	before, err := s.repo.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	updated, err := s.repo.Update(entities.Settings{
		MinBookingLength:    input.MinBookingLength,
		MaxBookingLength:    input.MaxBookingLength,
		MaxGuestsPerBooking: input.MaxGuestsPerBooking,
		BreakfastPrice:      input.BreakfastPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	s.audit.LogSettings(actor, fmt.Sprintf("stay %d-%d -> %d-%d nights, guests %d -> %d, breakfast %d -> %d",
		before.MinBookingLength, before.MaxBookingLength, updated.MinBookingLength, updated.MaxBookingLength,
		before.MaxGuestsPerBooking, updated.MaxGuestsPerBooking, before.BreakfastPrice, updated.BreakfastPrice))

	return updated, nil
}
