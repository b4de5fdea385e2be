package config

import (
	"time"

	"github.com/spf13/viper"
)

type StorageProvider string

const (
	StorageProviderLocal    StorageProvider = "local"    // Files on disk served under /uploads/ (default)
	StorageProviderSupabase StorageProvider = "supabase" // Supabase Storage REST API
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Auth
		Google
		Storage
		Tasks
		Scheduler
		Audit
		Maintenance
		Crypto
		Metrics
		Plausible
	}

	HTTP struct {
		Port    int32
		Host    string
		BaseURL string // Public URL used to build the OAuth redirect, e.g. "https://wildoasis.example"
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
		SiteName      string
	}
	Auth struct {
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool   // Set to false for local dev without HTTPS
		CSRFKey         string // 32-byte key; random per process when empty

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Google struct {
		ClientID     string
		ClientSecret string
	}
	Storage struct {
		Provider    StorageProvider
		UploadsDir  string
		SupabaseURL string
		SupabaseKey string
		Bucket      string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		Enabled              bool
		StaleBookingSchedule string // Cron format: "15 3 * * *" = daily at 03:15
		AuditCleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
	Maintenance struct {
		Enabled bool   // Reject every mutating request
		Message string // Shown to visitors while enabled
	}
	Crypto struct {
		Key string // Base64 AES-256 key for guest national IDs; plaintext storage when empty
	}
	Metrics struct {
		Enabled bool
		Path    string
	}
	Plausible struct {
		Domain     string // Site domain registered in Plausible; tracking is off when empty
		ScriptURL  string
		Extensions string // Comma-separated, e.g. "outbound-links,file-downloads"
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("base_url", "http://localhost:8188")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")
	v.SetDefault("site_name", "The Wild Oasis")

	// Auth defaults
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_csrf_key", "")             // Auto-generated if empty
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("google_client_id", "")
	v.SetDefault("google_client_secret", "")

	// Storage defaults
	v.SetDefault("storage_provider", string(StorageProviderLocal))
	v.SetDefault("storage_uploads_dir", DefaultUploadsDir)
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_key", "")
	v.SetDefault("storage_bucket", DefaultStorageBucket)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("stale_booking_schedule", "15 3 * * *")
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")

	v.SetDefault("audit_retention_days", 90)

	v.SetDefault("maintenance_mode", false)
	v.SetDefault("maintenance_message", "Bookings are temporarily paused for maintenance.")

	v.SetDefault("encryption_key", "")

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_path", "/metrics")

	v.SetDefault("plausible_domain", "")
	v.SetDefault("plausible_script_url", "https://plausible.io/js/script.js")
	v.SetDefault("plausible_extensions", "")

	return &Config{
		HTTP: HTTP{
			Port:    v.GetInt32("PORT"),
			Host:    v.GetString("HOST"),
			BaseURL: v.GetString("BASE_URL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
			SiteName:      v.GetString("SITE_NAME"),
		},
		Auth: Auth{
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFKey:          v.GetString("AUTH_CSRF_KEY"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Google: Google{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		},
		Storage: Storage{
			Provider:    StorageProvider(v.GetString("STORAGE_PROVIDER")),
			UploadsDir:  v.GetString("STORAGE_UPLOADS_DIR"),
			SupabaseURL: v.GetString("SUPABASE_URL"),
			SupabaseKey: v.GetString("SUPABASE_KEY"),
			Bucket:      v.GetString("STORAGE_BUCKET"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			Enabled:              v.GetBool("SCHEDULER_ENABLED"),
			StaleBookingSchedule: v.GetString("STALE_BOOKING_SCHEDULE"),
			AuditCleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Maintenance: Maintenance{
			Enabled: v.GetBool("MAINTENANCE_MODE"),
			Message: v.GetString("MAINTENANCE_MESSAGE"),
		},
		Crypto: Crypto{
			Key: v.GetString("ENCRYPTION_KEY"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
		Plausible: Plausible{
			Domain:     v.GetString("PLAUSIBLE_DOMAIN"),
			ScriptURL:  v.GetString("PLAUSIBLE_SCRIPT_URL"),
			Extensions: v.GetString("PLAUSIBLE_EXTENSIONS"),
		},
	}
}

// GoogleEnabled reports whether guest sign-in can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
