package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/wildoasis/booking/internal/analytics"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/config"
	http_controllers "github.com/wildoasis/booking/internal/http"
	"github.com/wildoasis/booking/internal/maintenance"
	"github.com/wildoasis/booking/internal/oauth2"
	"github.com/wildoasis/booking/internal/oauth2/providers"
	"github.com/wildoasis/booking/internal/scheduler"
	"github.com/wildoasis/booking/internal/services"
	"github.com/wildoasis/booking/internal/tasks"
)

// Server is the fully wired site: HTTP handler plus background workers.
type Server struct {
	App      *App
	Router   *http_controllers.Router
	Sessions *auth.SessionManager
	Tasks    *tasks.Client // nil when the queue is disabled

	scheduler *scheduler.Scheduler
	cancel    context.CancelFunc
	http      *http.Server
}

// NewServer builds everything the site needs and starts the task workers and
// scheduler. Call Shutdown to release it.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	if err := validBaseURL(cfg.HTTP.BaseURL); err != nil {
		return nil, err
	}

	var taskClient *tasks.Client
	var remover services.ImageRemover
	if cfg.Tasks.Enabled {
		var err error
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		remover = tasks.NewImageRemover(taskClient)
	}

	app, err := NewApp(cfg, remover)
	if err != nil {
		if taskClient != nil {
			taskClient.Close()
		}
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{App: app, Tasks: taskClient, cancel: cancel}

	if err := s.wire(ctx, cfg, version); err != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if closeErr := s.Shutdown(shutdownCtx); closeErr != nil {
			log.Printf("Error releasing partially built server: %v", closeErr)
		}
		return nil, err
	}
	return s, nil
}

func (s *Server) wire(ctx context.Context, cfg *config.Config, version string) error {
	app := s.App

	var sched *scheduler.Scheduler
	if s.Tasks != nil {
		s.Tasks.Register(
			tasks.NewCancelStaleBookingsQueue(app.Bookings, app.Audit),
			tasks.NewCleanupAuditEventsQueue(app.Audit, app.Audit, cfg.Audit.RetentionDays),
			tasks.NewDeleteCabinImageQueue(app.Store),
		)
		if cfg.Scheduler.Enabled {
			var err error
			sched, err = scheduler.New(s.Tasks, scheduler.DefaultJobs(cfg.Scheduler, cfg.Audit)...)
			if err != nil {
				return err
			}
		}
	} else if cfg.Scheduler.Enabled {
		log.Printf("WARNING: scheduler needs the task queue; set TASKS_ENABLED=true to run housekeeping jobs")
	}

	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	s.Sessions, err = auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	csrfSecret, err := csrfKey(cfg.Auth.CSRFKey)
	if err != nil {
		return err
	}

	registry := oauth2.NewRegistry()
	providers.RegisterGoogle(registry, cfg.Google.ClientID, cfg.Google.ClientSecret)
	if cfg.GoogleEnabled() {
		log.Printf("Guest sign-in with Google enabled")
	} else {
		log.Printf("WARNING: GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set. Guests cannot sign in.")
	}

	var maint *maintenance.Middleware
	if cfg.Maintenance.Enabled {
		log.Printf("Maintenance mode enabled - guest and staff changes are blocked")
		maint = maintenance.NewMiddleware(true, cfg.Maintenance.Message, auth.IsStaff)
	}

	plausible, err := analytics.NewPlausible(cfg.Plausible)
	if err != nil {
		return err
	}
	if plausible.Enabled() {
		log.Printf("Plausible analytics enabled for %s", plausible.Domain)
	}

	if hasUsers, _ := app.Auth.HasUsers(); !hasUsers {
		log.Printf("No staff users found. Visit /admin/setup to create an administrator account.")
	}

	routerCfg := http_controllers.RouterConfig{
		Cabins:         app.Cabins,
		Bookings:       app.Bookings,
		Guests:         app.Guests,
		Settings:       app.Settings,
		AuditService:   app.Audit,
		Database:       app.DB,
		AuthService:    app.Auth,
		SessionManager: s.Sessions,
		OAuthProviders: registry,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		BaseURL:        cfg.HTTP.BaseURL,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		SiteName:       cfg.UI.SiteName,
		UploadsDir:     app.UploadsDir,
		ImageOrigins:   app.ImageOrigins,
		Analytics:      plausible,
		Version:        version,
		Maintenance:    maint,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Clock:          app.Clock,
	}
	if s.Tasks != nil {
		routerCfg.TaskQueue = s.Tasks
	}

	s.Router, err = http_controllers.NewRouter(routerCfg)
	if err != nil {
		return err
	}

	// Workers start last so a wiring error never leaves them running.
	if s.Tasks != nil {
		go s.Tasks.Start(ctx)
	}
	if sched != nil {
		if err := sched.Start(ctx); err != nil {
			return err
		}
		s.scheduler = sched
	}
	return nil
}

// Shutdown stops background work in dependency order and collects every error.
func (s *Server) Shutdown(ctx context.Context) error {
	var result *multierror.Error

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("http server: %w", err))
		}
	}
	if s.Router != nil {
		s.Router.Close()
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.Tasks != nil {
		if !s.Tasks.Stop(ctx) {
			result = multierror.Append(result, errors.New("task queue: workers still running at deadline"))
		}
	}
	s.cancel()
	if s.Tasks != nil {
		if err := s.Tasks.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("task queue: %w", err))
		}
	}
	if s.Sessions != nil {
		s.Sessions.Close()
	}
	if err := s.App.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// ListenAndServe serves until SIGINT or SIGTERM, then shuts down within the
// configured timeout.
func (s *Server) ListenAndServe(cfg *config.Config) error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var listenErr error
	select {
	case <-quit:
	case listenErr = <-serveErr:
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	log.Printf("Shutting down, waiting up to %v", timeout)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var result *multierror.Error
	if listenErr != nil {
		result = multierror.Append(result, fmt.Errorf("listen: %w", listenErr))
	}
	if err := s.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	log.Println("Server exiting")
	return result.ErrorOrNil()
}

// Run builds the server and blocks until it is stopped.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting %s v%s", cfg.UI.SiteName, version)
	srv, err := NewServer(cfg, version)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(cfg)
}
