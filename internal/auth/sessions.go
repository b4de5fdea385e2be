package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
	SessionKeyLoginAt  = "login_at"

	SessionKeyGuestID     = "guest_id"
	SessionKeyGuestName   = "guest_name"
	SessionKeyGuestEmail  = "guest_email"
	SessionKeyGuestAvatar = "guest_avatar"

	sessionKeyOAuthState    = "oauth_state"
	sessionKeyOAuthVerifier = "oauth_verifier"
	sessionKeyOAuthNext     = "oauth_next"
)

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with staff and guest helpers.
// A browser can hold a staff login and a guest login at the same time.
type SessionManager struct {
	*scs.SessionManager
	store *sqlite3store.SQLite3Store
}

// NewSessionManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	store := sqlite3store.New(sqlDB)
	sm := scs.New()
	sm.Store = store

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	// Lax: the Google callback arrives as a cross-site top-level navigation.
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm, store: store}, nil
}

// Close stops the store's expired-session sweeper.
func (sm *SessionManager) Close() {
	sm.store.StopCleanup()
}

// CreateSession stores a staff login. Call after password verification.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	ctx := r.Context()
	// Renew token to prevent session fixation
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyUsername, user.Username)
	sm.Put(ctx, SessionKeyRole, user.Role)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// GuestIdentity is what the session remembers about a signed-in guest.
type GuestIdentity struct {
	ID     uint
	Name   string
	Email  string
	Avatar string
}

// CreateGuestSession stores a guest sign-in. Call after the OAuth callback succeeds.
func (sm *SessionManager) CreateGuestSession(r *http.Request, guest GuestIdentity) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	sm.Put(ctx, SessionKeyGuestID, int(guest.ID))
	sm.Put(ctx, SessionKeyGuestName, guest.Name)
	sm.Put(ctx, SessionKeyGuestEmail, guest.Email)
	sm.Put(ctx, SessionKeyGuestAvatar, guest.Avatar)
	return nil
}

// SignOutGuest removes the guest sign-in and keeps any staff login.
func (sm *SessionManager) SignOutGuest(r *http.Request) error {
	ctx := r.Context()
	for _, key := range []string{SessionKeyGuestID, SessionKeyGuestName, SessionKeyGuestEmail, SessionKeyGuestAvatar} {
		sm.Remove(ctx, key)
	}
	return sm.RenewToken(ctx)
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID retrieves the staff user ID from the session.
// Returns 0 if no staff member is signed in.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// GetUsername retrieves the staff username from the session.
func (sm *SessionManager) GetUsername(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}

// GetUserRole retrieves the staff role from the session.
func (sm *SessionManager) GetUserRole(r *http.Request) entities.UserRole {
	role, ok := sm.Get(r.Context(), SessionKeyRole).(entities.UserRole)
	if !ok {
		return ""
	}
	return role
}

// IsAuthenticated returns true if a staff member is signed in.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// GetGuest returns the signed-in guest or nil.
func (sm *SessionManager) GetGuest(r *http.Request) *GuestIdentity {
	ctx := r.Context()
	id := sm.GetInt(ctx, SessionKeyGuestID)
	if id == 0 {
		return nil
	}
	return &GuestIdentity{
		ID:     uint(id),
		Name:   sm.GetString(ctx, SessionKeyGuestName),
		Email:  sm.GetString(ctx, SessionKeyGuestEmail),
		Avatar: sm.GetString(ctx, SessionKeyGuestAvatar),
	}
}

// SetGuestName refreshes the cached display name after a profile edit.
func (sm *SessionManager) SetGuestName(r *http.Request, name string) {
	sm.Put(r.Context(), SessionKeyGuestName, name)
}

// SessionData holds the staff session information for a request.
type SessionData struct {
	UserID   uint
	Username string
	Role     entities.UserRole
	LoginAt  time.Time
}

// GetSessionData retrieves all staff session data at once.
func (sm *SessionManager) GetSessionData(r *http.Request) *SessionData {
	userID := sm.GetUserID(r)
	if userID == 0 {
		return nil
	}

	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)

	return &SessionData{
		UserID:   userID,
		Username: sm.GetUsername(r),
		Role:     sm.GetUserRole(r),
		LoginAt:  loginAt,
	}
}

// OAuthFlow is the state kept between redirecting to the provider and its callback.
type OAuthFlow struct {
	State    string
	Verifier string
	Next     string
}

// PutOAuthFlow remembers an in-flight sign-in.
func (sm *SessionManager) PutOAuthFlow(ctx context.Context, flow OAuthFlow) {
	sm.Put(ctx, sessionKeyOAuthState, flow.State)
	sm.Put(ctx, sessionKeyOAuthVerifier, flow.Verifier)
	sm.Put(ctx, sessionKeyOAuthNext, flow.Next)
}

// PopOAuthFlow returns and clears the in-flight sign-in. State is empty when none exists.
func (sm *SessionManager) PopOAuthFlow(ctx context.Context) OAuthFlow {
	return OAuthFlow{
		State:    sm.PopString(ctx, sessionKeyOAuthState),
		Verifier: sm.PopString(ctx, sessionKeyOAuthVerifier),
		Next:     sm.PopString(ctx, sessionKeyOAuthNext),
	}
}
