// Package guests provides database operations for guest profiles.
//
// When a FieldSealer is configured the national ID column only ever holds
// ciphertext. Callers always see plaintext.
package guests

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/entities"
)

// FieldSealer encrypts single column values. Implemented by crypto.FieldCipher.
type FieldSealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// Repository handles all guest database operations.
type Repository struct {
	db     *gorm.DB
	sealer FieldSealer
}

// NewRepository creates a new guests repository. sealer may be nil.
func NewRepository(db *gorm.DB, sealer FieldSealer) *Repository {
	return &Repository{db: db, sealer: sealer}
}

// GetByID retrieves a guest by ID.
func (r *Repository) GetByID(id uint) (*entities.Guest, error) {
	var guest entities.Guest
	if err := r.db.First(&guest, id).Error; err != nil {
		return nil, err
	}
	return r.open(&guest)
}

// GetByEmail retrieves a guest by email, case-insensitively.
func (r *Repository) GetByEmail(email string) (*entities.Guest, error) {
	var guest entities.Guest
	err := r.db.Where("email = ?", normalizeEmail(email)).First(&guest).Error
	if err != nil {
		return nil, err
	}
	return r.open(&guest)
}

// Create inserts a new guest.
func (r *Repository) Create(guest *entities.Guest) error {
	guest.Email = normalizeEmail(guest.Email)
	return r.write(guest, func(row *entities.Guest) error {
		return r.db.Omit("Bookings").Create(row).Error
	})
}

// Update saves every column of an existing guest.
func (r *Repository) Update(guest *entities.Guest) error {
	guest.Email = normalizeEmail(guest.Email)
	return r.write(guest, func(row *entities.Guest) error {
		return r.db.Omit("Bookings").Save(row).Error
	})
}

// List returns every guest ordered by name. Used by staff screens and seeding.
func (r *Repository) List() ([]entities.Guest, error) {
	var rows []entities.Guest
	if err := r.db.Order("full_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if _, err := r.open(&rows[i]); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// write seals a copy of guest, runs fn on it and copies generated fields back.
func (r *Repository) write(guest *entities.Guest, fn func(*entities.Guest) error) error {
	row := *guest
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(guest.NationalID)
		if err != nil {
			return fmt.Errorf("failed to seal national ID: %w", err)
		}
		row.NationalID = sealed
	}

	if err := fn(&row); err != nil {
		return err
	}

	guest.ID = row.ID
	guest.CreatedAt = row.CreatedAt
	guest.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) open(guest *entities.Guest) (*entities.Guest, error) {
	if r.sealer == nil {
		return guest, nil
	}
	plain, err := r.sealer.Open(guest.NationalID)
	if err != nil {
		return nil, fmt.Errorf("failed to open national ID for guest %d: %w", guest.ID, err)
	}
	guest.NationalID = plain
	return guest, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
