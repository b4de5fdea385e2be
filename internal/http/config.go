package http

import (
	"github.com/jonboulle/clockwork"

	"github.com/wildoasis/booking/internal/analytics"
	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/database"
	"github.com/wildoasis/booking/internal/maintenance"
	"github.com/wildoasis/booking/internal/oauth2"
	"github.com/wildoasis/booking/internal/services"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Domain services
	Cabins       *services.CabinService
	Bookings     *services.BookingService
	Guests       *services.GuestService
	Settings     *services.SettingsService
	AuditService *audit.Service
	Database     *database.Database

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	OAuthProviders *oauth2.Registry
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool
	BaseURL        string // public site URL for OAuth redirects

	// UI paths
	TemplatesPath string
	StaticPath    string
	SiteName      string

	// UploadsDir is served under /uploads/ when cabin photos live on disk.
	UploadsDir string
	// ImageOrigins are extra img-src origins for the CSP (remote image store, avatars).
	ImageOrigins []string

	// Analytics adds page-view tracking to public pages (optional).
	Analytics *analytics.Plausible

	// Application info
	Version string

	Maintenance *maintenance.Middleware

	MetricsEnabled bool
	MetricsPath    string

	// Task queue client (optional)
	TaskQueue TaskQueue

	Clock clockwork.Clock
}
