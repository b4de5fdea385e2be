// Package users provides database operations for staff accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByLogin("admin")
package users

import (
	"time"

	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/entities"
)

// Repository handles all staff user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByLogin retrieves a user by username or email.
func (r *Repository) GetByLogin(login string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether the username or email is already registered.
func (r *Repository) Exists(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error
	return count > 0, err
}

// Count returns the number of staff users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}

// RecordLogin stamps a successful login and clears any lockout.
func (r *Repository) RecordLogin(id uint, at time.Time) error {
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(map[string]any{
		"last_login_at":      at,
		"failed_login_count": 0,
		"locked_until":       nil,
	}).Error
}

// RecordFailedLogin stores the failure counter and an optional lockout deadline.
func (r *Repository) RecordFailedLogin(id uint, failures int, lockedUntil *time.Time) error {
	updates := map[string]any{"failed_login_count": failures}
	if lockedUntil != nil {
		updates["locked_until"] = *lockedUntil
	}
	return r.db.Model(&entities.User{}).Where("id = ?", id).Updates(updates).Error
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *Repository) UpdatePassword(id uint, hash string) error {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
