package entrypoint

import (
	"encoding/hex"
	"fmt"
	"log"
	"net/url"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/crypto"
	"github.com/wildoasis/booking/internal/database"
	dbaudit "github.com/wildoasis/booking/internal/database/audit"
	"github.com/wildoasis/booking/internal/database/bookings"
	"github.com/wildoasis/booking/internal/database/cabins"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/database/settings"
	"github.com/wildoasis/booking/internal/database/users"
	"github.com/wildoasis/booking/internal/services"
	"github.com/wildoasis/booking/internal/storage"
	"github.com/wildoasis/booking/internal/storage/providers/local"
	"github.com/wildoasis/booking/internal/storage/providers/supabase"
)

// googleAvatarOrigin serves profile pictures shown in the header.
const googleAvatarOrigin = "https://lh3.googleusercontent.com"

// App holds the database and the services built on it. The server and the
// CLI commands share it.
type App struct {
	Config *config.Config
	DB     *database.Database
	Sealer guests.FieldSealer
	Clock  clockwork.Clock

	Audit    *audit.Service
	Auth     *auth.Service
	Cabins   *services.CabinService
	Bookings *services.BookingService
	Guests   *services.GuestService
	Settings *services.SettingsService

	Store        storage.Client
	UploadsDir   string   // set when images live on local disk
	ImageOrigins []string // extra img-src origins for the CSP
}

// NewApp opens the database and wires repositories into services.
// remover may be nil, in which case replaced images are deleted inline.
func NewApp(cfg *config.Config, remover services.ImageRemover) (*App, error) {
	sealer, err := newSealer(cfg.Crypto.Key)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	store, uploadsDir, err := newStore(cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	app := &App{
		Config:     cfg,
		DB:         db,
		Sealer:     sealer,
		Clock:      clockwork.NewRealClock(),
		Store:      store,
		UploadsDir: uploadsDir,
	}
	app.ImageOrigins = imageOrigins(cfg)
	app.Audit = audit.NewService(dbaudit.NewRepository(db.DB))
	app.Auth = auth.NewService(users.NewRepository(db.DB), cfg.Auth, app.Clock)

	cabinRepo := cabins.NewRepository(db.DB)
	bookingRepo := bookings.NewRepository(db.DB)
	guestRepo := guests.NewRepository(db.DB, sealer)
	settingsRepo := settings.NewRepository(db.DB)

	app.Cabins = services.NewCabinService(cabinRepo, bookingRepo, store, remover, app.Audit, app.Clock)
	app.Bookings = services.NewBookingService(bookingRepo, cabinRepo, guestRepo, settingsRepo, app.Audit, app.Clock)
	app.Guests = services.NewGuestService(guestRepo, app.Audit)
	app.Settings = services.NewSettingsService(settingsRepo, app.Audit)

	return app, nil
}

// Close flushes pending audit writes and closes the database.
func (a *App) Close() error {
	a.Audit.Wait()
	var result *multierror.Error
	if err := a.DB.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close database: %w", err))
	}
	return result.ErrorOrNil()
}

// newSealer returns nil when no key is configured so national IDs are stored as typed.
func newSealer(key string) (guests.FieldSealer, error) {
	if key == "" {
		log.Printf("WARNING: ENCRYPTION_KEY is not set. National IDs will be stored unencrypted.")
		return nil, nil
	}
	cipher, err := crypto.NewFieldCipherFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
	}
	return cipher, nil
}

// newStore picks the image store. The uploads directory is returned for the
// local provider so the router can serve it.
func newStore(cfg config.Storage) (storage.Client, string, error) {
	switch cfg.Provider {
	case config.StorageProviderSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, "", fmt.Errorf("storage provider %q needs SUPABASE_URL and SUPABASE_KEY", cfg.Provider)
		}
		log.Printf("Cabin images stored in Supabase bucket %s", cfg.Bucket)
		return supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Bucket), "", nil
	case config.StorageProviderLocal, "":
		client, err := local.NewClient(cfg.UploadsDir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to prepare uploads directory: %w", err)
		}
		log.Printf("Cabin images stored in %s", cfg.UploadsDir)
		return client, cfg.UploadsDir, nil
	default:
		return nil, "", fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func imageOrigins(cfg *config.Config) []string {
	var origins []string
	if cfg.Storage.Provider == config.StorageProviderSupabase && cfg.Storage.SupabaseURL != "" {
		origins = append(origins, cfg.Storage.SupabaseURL)
	}
	if cfg.GoogleEnabled() {
		origins = append(origins, googleAvatarOrigin)
	}
	return origins
}

// csrfKey decodes AUTH_CSRF_KEY, accepting hex or raw bytes. A random key is
// generated when none is set, which signs everyone out on restart.
func csrfKey(configured string) ([]byte, error) {
	if configured == "" {
		key, err := auth.GenerateCSRFKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
		}
		log.Printf("Generated CSRF key (set AUTH_CSRF_KEY to persist)")
		return key, nil
	}
	if key, err := hex.DecodeString(configured); err == nil && len(key) == 32 {
		return key, nil
	}
	if len(configured) != 32 {
		return nil, fmt.Errorf("AUTH_CSRF_KEY must be 32 bytes or 64 hex characters")
	}
	return []byte(configured), nil
}

// validBaseURL rejects a BASE_URL Google would refuse as a redirect.
func validBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}
