package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/metrics"
	"github.com/wildoasis/booking/internal/storage/providers/local"
)

// Router is the configured HTTP handler. Close releases background helpers.
type Router struct {
	*gin.Engine
	staffAuth *auth.StaffAuthController
}

// Close stops the login rate limiter.
func (r *Router) Close() {
	if r.staffAuth != nil {
		r.staffAuth.Stop()
	}
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*Router, error) {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
	}

	// Apply security headers to all responses
	var scriptOrigins []string
	if origin := cfg.Analytics.Origin(); origin != "" {
		scriptOrigins = append(scriptOrigins, origin)
	}
	router.Use(auth.SecurityHeadersMiddleware(scriptOrigins, cfg.ImageOrigins...))

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	router.Use(cfg.SessionManager.LoadAndSave())

	authMiddleware := auth.NewMiddleware(cfg.AuthService, cfg.SessionManager)
	router.Use(authMiddleware.Handler())

	if cfg.Maintenance != nil && cfg.Maintenance.IsEnabled() {
		router.Use(cfg.Maintenance.Handler())
	}

	tmpl, err := LoadTemplates(cfg.TemplatesPath, cfg.Clock)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates from %s: %w", cfg.TemplatesPath, err)
	}
	renderer := NewTemplateRenderer(tmpl, cfg.SessionManager, cfg.SiteName)
	renderer.analytics = cfg.Analytics
	if cfg.Maintenance != nil {
		cfg.Maintenance.SetRenderer(renderer)
	}

	// Serve static files
	router.Static("/static", cfg.StaticPath)
	if cfg.UploadsDir != "" {
		router.Static(local.URLPrefix, cfg.UploadsDir)
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	if running, ok := cfg.TaskQueue.(interface{ Running() bool }); ok {
		health.WithTaskCheck(running.Running)
	}
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if cfg.MetricsEnabled {
		router.GET(cfg.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	// Sign-in
	guestAuth := auth.NewGuestAuthController(cfg.OAuthProviders, cfg.Guests, cfg.SessionManager, renderer, cfg.AuditService, cfg.BaseURL)
	guestAuth.RegisterRoutes(router)

	// Public pages
	pages := NewPagesController(cfg.Cabins, renderer)
	cabins := NewCabinsController(cfg.Cabins, cfg.Bookings, cfg.Settings, renderer)
	router.GET("/", pages.Home)
	router.GET("/about", pages.About)
	router.GET("/cabins", cabins.ListPage)
	router.GET("/cabins/:id", cabins.DetailPage)
	router.NoRoute(pages.NotFound)

	api := router.Group("/api")
	api.GET("/cabins/:id", cabins.GetCabin)
	api.GET("/cabins/:id/booked-dates", cabins.BookedDates)
	api.GET("/settings", cabins.GetSettings)

	// Guest area
	reservations := NewReservationsController(cfg.Bookings, cfg.Cabins, cfg.Guests, cfg.Settings, renderer, cfg.SessionManager)
	profile := NewProfileController(cfg.Guests, renderer, cfg.SessionManager)
	account := router.Group("/account", authMiddleware.RequireGuest())
	account.GET("", reservations.AccountPage)
	account.GET("/reservations", reservations.ListPage)
	account.POST("/reservations", reservations.Create)
	account.GET("/reservations/:id/edit", reservations.EditPage)
	account.POST("/reservations/:id", reservations.Update)
	account.POST("/reservations/:id/cancel", reservations.Cancel)
	account.GET("/profile", profile.ProfilePage)
	account.POST("/profile", profile.UpdateProfile)

	// Staff area: login and setup are public, everything else requires staff
	staffAuth := auth.NewStaffAuthController(cfg.AuthService, cfg.SessionManager, renderer, cfg.AuditService, cfg.AuthConfig)
	staffAuth.RegisterRoutes(router.Group("/admin"))

	admin := NewAdminController(cfg.Cabins, cfg.Bookings, cfg.Guests, cfg.Settings, renderer, cfg.SessionManager)
	staff := router.Group("/admin", authMiddleware.RequireStaff())
	staff.GET("", admin.Dashboard)
	staff.GET("/cabins", admin.Cabins)
	staff.POST("/cabins", admin.CreateCabin)
	staff.GET("/cabins/:id/edit", admin.EditCabinPage)
	staff.POST("/cabins/:id", admin.UpdateCabin)
	staff.POST("/cabins/:id/delete", admin.DeleteCabin)
	staff.GET("/settings", admin.SettingsPage)
	staff.POST("/settings", admin.UpdateSettings)
	staff.GET("/bookings", admin.Bookings)
	staff.GET("/bookings/:id", admin.Booking)
	staff.POST("/bookings/:id/status", admin.SetStatus)
	staff.POST("/bookings/:id/paid", admin.MarkPaid)
	staff.POST("/bookings/:id/delete", admin.DeleteBooking)
	staff.GET("/guests", admin.Guests)

	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		staff.GET("/audit", auditController.GetAuditEvents)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue)
		staff.GET("/tasks/types", tasksController.ListTaskTypes)
		staff.GET("/tasks/:id", tasksController.GetTaskStatus)
		staff.POST("/tasks/:type/run", tasksController.RunTask)
	}

	return &Router{Engine: router, staffAuth: staffAuth}, nil
}
