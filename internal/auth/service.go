package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/database/users"
	"github.com/wildoasis/booking/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles staff authentication and user management.
type Service struct {
	users  *users.Repository
	config config.Auth
	clock  clockwork.Clock
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.Auth, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		users:  repo,
		config: cfg,
		clock:  clock,
	}
}

// CreateUser creates a new staff user with password authentication.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	// RFC 5321 caps addresses at 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	switch role {
	case entities.UserRoleAdmin, entities.UserRoleStaff:
	default:
		return nil, ErrInvalidRole
	}

	exists, err := s.users.Exists(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate validates credentials and returns the user.
// Accounts lock for LockoutDuration after MaxLoginAttempts consecutive failures.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.users.GetByLogin(strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.clock.Now()
	if user.LockedUntil != nil {
		if now.Before(*user.LockedUntil) {
			return nil, ErrAccountLocked
		}
		// Lockout served; start counting again.
		user.FailedLoginCount = 0
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user, now)
		return nil, err
	}

	if err := s.users.RecordLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil

	return user, nil
}

// recordFailedLogin increments the failure counter and locks the account at the threshold.
func (s *Service) recordFailedLogin(user *entities.User, now time.Time) {
	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	lockout := s.config.LockoutDuration
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}

	user.FailedLoginCount++
	var lockedUntil *time.Time
	if user.FailedLoginCount >= maxAttempts {
		until := now.Add(lockout)
		lockedUntil = &until
	}
	user.LockedUntil = lockedUntil

	// A failed write here only loses a counter increment.
	_ = s.users.RecordFailedLogin(user.ID, user.FailedLoginCount, lockedUntil)
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword updates a user's password after verifying the old one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(userID, newHash)
}

// HasUsers returns true if any staff users exist.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
