package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/entities"
)

// ProfileInput is the guest profile form.
type ProfileInput struct {
	FullName    string `json:"full_name" form:"full_name" validate:"required,max=255"`
	Nationality string `json:"nationality" form:"nationality" validate:"max=100"`
	NationalID  string `json:"national_id" form:"national_id" validate:"omitempty,alphanum,min=6,max=12"`
}

type GuestService struct {
	repo  *guests.Repository
	audit AuditLogger
}

func NewGuestService(repo *guests.Repository, auditor AuditLogger) *GuestService {
	if auditor == nil {
		auditor = nopAudit{}
	}
	return &GuestService{repo: repo, audit: auditor}
}

// GetOrCreateByEmail returns the guest for a signed-in email, creating the
// profile on first sign-in. Returns true when a guest was created.
func (s *GuestService) GetOrCreateByEmail(email, fullName string) (*entities.Guest, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, false, errors.New("email is required")
	}

	guest, err := s.repo.GetByEmail(email)
	if err == nil {
		return guest, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up guest: %w", err)
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = strings.SplitN(email, "@", 2)[0]
	}
	guest = &entities.Guest{FullName: fullName, Email: email}
	if err := s.repo.Create(guest); err != nil {
		// Two concurrent first sign-ins race on the unique email index.
		if existing, lookupErr := s.repo.GetByEmail(email); lookupErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create guest: %w", err)
	}

	s.audit.LogGuest(audit.GuestActor(guest.ID, ""), "guest_signup", guest.ID, "First sign-in as "+guest.Email)
	return guest, true, nil
}

// GetGuest returns a guest or ErrGuestNotFound.
func (s *GuestService) GetGuest(id uint) (*entities.Guest, error) {
	guest, err := s.repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGuestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guest %d: %w", id, err)
	}
	return guest, nil
}

// UpdateProfile saves name, nationality and national ID. The flag follows the nationality.
func (s *GuestService) UpdateProfile(guestID uint, input ProfileInput) (*entities.Guest, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Nationality = strings.TrimSpace(input.Nationality)
	input.NationalID = strings.TrimSpace(input.NationalID)

	ve := NewValidationError()
	if err := validateStruct(input, ve); err != nil {
		return nil, err
	}
	if ve.Has("national_id") {
		ve.Fields["national_id"] = []string{"Please provide a valid national ID (6-12 letters or digits)"}
	}
	country, known := LookupCountry(input.Nationality)
	if input.Nationality != "" && !known {
		ve.Add("nationality", "Please select a country from the list")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	guest, err := s.GetGuest(guestID)
	if err != nil {
		return nil, err
	}

	guest.FullName = input.FullName
	guest.NationalID = input.NationalID
	if known {
		guest.Nationality = country.Name
		guest.CountryFlag = country.FlagURL()
	} else {
		guest.Nationality = ""
		guest.CountryFlag = ""
	}

	if err := s.repo.Update(guest); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.audit.LogGuest(audit.GuestActor(guestID, ""), "guest_profile_update", guestID, "Profile updated")
	return guest, nil
}

// ListGuests returns every guest. Staff only.
func (s *GuestService) ListGuests() ([]entities.Guest, error) {
	return s.repo.List()
}
