package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/config"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/oauth2"
)

// Renderer draws a named page template. The http package supplies it so auth
// pages share the site layout.
type Renderer interface {
	HTML(c *gin.Context, status int, name string, data gin.H)
}

// AuthAuditor records sign-in events. Implemented by audit.Service.
type AuthAuditor interface {
	LogAuth(actor audit.Actor, action string, success bool)
}

// GuestResolver maps a verified email to a guest profile, creating it on first sign-in.
type GuestResolver interface {
	GetOrCreateByEmail(email, fullName string) (*entities.Guest, bool, error)
}

type nopAuthAuditor struct{}

func (nopAuthAuditor) LogAuth(audit.Actor, string, bool) {}

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	// Browsers drop tab and newline, so "/\t/evil.com" becomes "//evil.com".
	for i := 0; i < len(path); i++ {
		if path[i] < 0x20 || path[i] == 0x7f {
			return false
		}
	}
	u, err := url.Parse(path)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return true
}

// sanitizeRedirectPath returns path if it is local, otherwise fallback.
func sanitizeRedirectPath(path, fallback string) string {
	if isLocalPath(path) {
		return path
	}
	return fallback
}

// GuestAuthController runs the Google sign-in flow for guests.
type GuestAuthController struct {
	providers      *oauth2.Registry
	guests         GuestResolver
	sessionManager *SessionManager
	renderer       Renderer
	auditor        AuthAuditor
	baseURL        string
}

// NewGuestAuthController wires guest sign-in. baseURL is the public site URL
// used to build the OAuth redirect.
func NewGuestAuthController(providers *oauth2.Registry, guests GuestResolver, sm *SessionManager, renderer Renderer, auditor AuthAuditor, baseURL string) *GuestAuthController {
	if auditor == nil {
		auditor = nopAuthAuditor{}
	}
	return &GuestAuthController{
		providers:      providers,
		guests:         guests,
		sessionManager: sm,
		renderer:       renderer,
		auditor:        auditor,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

// RegisterRoutes registers guest sign-in routes on the router.
func (gc *GuestAuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", gc.LoginPage)
	router.POST("/login/:provider", gc.StartLogin)
	router.GET("/auth/:provider/callback", gc.Callback)
	router.POST("/logout", gc.Logout)
}

func (gc *GuestAuthController) callbackURL(provider oauth2.ProviderName) string {
	return gc.baseURL + "/auth/" + string(provider) + "/callback"
}

// LoginPage renders the guest sign-in page.
func (gc *GuestAuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"), "/account")
	if GetGuest(c) != nil {
		c.Redirect(http.StatusFound, next)
		return
	}

	gc.renderer.HTML(c, http.StatusOK, "login.html", gin.H{
		"Title":     "Login",
		"Next":      next,
		"Providers": gc.providers.List(),
		"Error":     c.Query("error"),
	})
}

// StartLogin redirects the browser to the provider's consent screen.
func (gc *GuestAuthController) StartLogin(c *gin.Context) {
	name := oauth2.ProviderName(c.Param("provider"))
	provider, err := gc.providers.Get(name)
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	authURL, verifier, state, err := provider.BuildAuthURL(gc.callbackURL(name))
	if err != nil {
		log.Printf("Failed to start %s sign-in: %v", name, err)
		gc.loginError(c, "Sign-in is unavailable right now. Please try again.")
		return
	}

	gc.sessionManager.PutOAuthFlow(c.Request.Context(), OAuthFlow{
		State:    state,
		Verifier: verifier,
		Next:     sanitizeRedirectPath(c.PostForm("next"), "/account"),
	})

	c.Redirect(http.StatusSeeOther, authURL)
}

// Callback completes sign-in: verifies state, exchanges the code, loads the
// profile, finds or creates the guest and starts the guest session.
func (gc *GuestAuthController) Callback(c *gin.Context) {
	name := oauth2.ProviderName(c.Param("provider"))
	provider, err := gc.providers.Get(name)
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	ctx := c.Request.Context()
	flow := gc.sessionManager.PopOAuthFlow(ctx)

	if errParam := c.Query("error"); errParam != "" {
		gc.loginError(c, "Sign-in was cancelled.")
		return
	}
	if flow.State == "" || c.Query("state") != flow.State {
		log.Printf("%s callback: %v", name, oauth2.ErrStateMismatch)
		gc.auditor.LogAuth(audit.GuestActor(0, c.ClientIP()), "guest_login", false)
		gc.loginError(c, "Your sign-in session expired. Please try again.")
		return
	}

	token, err := provider.ExchangeCode(ctx, c.Query("code"), flow.Verifier, gc.callbackURL(name))
	if err != nil {
		log.Printf("%s code exchange failed: %v", name, err)
		gc.auditor.LogAuth(audit.GuestActor(0, c.ClientIP()), "guest_login", false)
		gc.loginError(c, "Sign-in failed. Please try again.")
		return
	}

	info, err := provider.UserInfo(ctx, token.AccessToken)
	if err != nil {
		log.Printf("%s user info failed: %v", name, err)
		msg := "Sign-in failed. Please try again."
		if errors.Is(err, oauth2.ErrEmailUnverified) {
			msg = "Please verify your email address with Google first."
		}
		gc.auditor.LogAuth(audit.GuestActor(0, c.ClientIP()), "guest_login", false)
		gc.loginError(c, msg)
		return
	}

	guest, _, err := gc.guests.GetOrCreateByEmail(info.Email, info.Name)
	if err != nil {
		log.Printf("Failed to resolve guest %s: %v", info.Email, err)
		gc.loginError(c, "Sign-in failed. Please try again.")
		return
	}

	err = gc.sessionManager.CreateGuestSession(c.Request, GuestIdentity{
		ID:     guest.ID,
		Name:   guest.FullName,
		Email:  guest.Email,
		Avatar: info.Picture,
	})
	if err != nil {
		log.Printf("Failed to create guest session: %v", err)
		gc.loginError(c, "Sign-in failed. Please try again.")
		return
	}

	gc.auditor.LogAuth(audit.GuestActor(guest.ID, c.ClientIP()), "guest_login", true)
	c.Redirect(http.StatusFound, sanitizeRedirectPath(flow.Next, "/account"))
}

// Logout signs the guest out and returns to the home page.
func (gc *GuestAuthController) Logout(c *gin.Context) {
	if guestID := GetGuestID(c); guestID != 0 {
		gc.auditor.LogAuth(audit.GuestActor(guestID, c.ClientIP()), "guest_logout", true)
	}
	if err := gc.sessionManager.SignOutGuest(c.Request); err != nil {
		log.Printf("Failed to sign out guest: %v", err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (gc *GuestAuthController) loginError(c *gin.Context, msg string) {
	c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape(msg))
}

// setupMutex serializes setup requests so only one first admin is created.
var setupMutex sync.Mutex

// StaffAuthController handles staff login, logout and first-run setup.
type StaffAuthController struct {
	service        *Service
	sessionManager *SessionManager
	renderer       Renderer
	auditor        AuthAuditor
	rateLimiter    *RateLimiter
}

// NewStaffAuthController creates the staff controller and its login rate limiter.
// Call Stop on shutdown.
func NewStaffAuthController(service *Service, sm *SessionManager, renderer Renderer, auditor AuthAuditor, cfg config.Auth) *StaffAuthController {
	if auditor == nil {
		auditor = nopAuthAuditor{}
	}
	return &StaffAuthController{
		service:        service,
		sessionManager: sm,
		renderer:       renderer,
		auditor:        auditor,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// RegisterRoutes registers staff auth routes on the /admin group.
func (ac *StaffAuthController) RegisterRoutes(admin gin.IRoutes) {
	admin.GET("/login", ac.LoginPage)
	admin.POST("/login", ac.Login)
	admin.POST("/logout", ac.Logout)
	admin.GET("/setup", ac.SetupPage)
	admin.POST("/setup", ac.Setup)
}

// Stop releases the rate limiter goroutine.
func (ac *StaffAuthController) Stop() {
	ac.rateLimiter.Stop()
}

func (ac *StaffAuthController) render(c *gin.Context, status int, name string, data gin.H) {
	ac.renderer.HTML(c, status, name, data)
}

// LoginPage renders the staff login form.
func (ac *StaffAuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"), "/admin")
	if IsStaff(c) {
		c.Redirect(http.StatusFound, next)
		return
	}

	hasUsers, _ := ac.service.HasUsers()
	if !hasUsers {
		c.Redirect(http.StatusFound, "/admin/setup")
		return
	}

	ac.render(c, http.StatusOK, "admin_login.html", gin.H{
		"Title": "Staff login",
		"Next":  next,
		"Error": c.Query("error"),
	})
}

// Login handles the staff login form submission.
func (ac *StaffAuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"), "/admin")
	clientIP := c.ClientIP()

	fail := func(status int, msg string) {
		ac.render(c, status, "admin_login.html", gin.H{
			"Title":    "Staff login",
			"Next":     next,
			"Username": username,
			"Error":    msg,
		})
	}

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username); !allowed {
		c.Header("Retry-After", retryAfter.Round(time.Second).String())
		fail(http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		return
	}

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, username)
		ac.auditor.LogAuth(audit.StaffActor(0, clientIP), "staff_login", false)

		msg := "Invalid username or password"
		if errors.Is(err, ErrAccountLocked) {
			msg = "Account is locked. Please try again later."
		}
		fail(http.StatusUnauthorized, msg)
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, username)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		fail(http.StatusInternalServerError, "Failed to create session")
		return
	}

	ac.auditor.LogAuth(audit.StaffActor(user.ID, clientIP), "staff_login", true)
	c.Redirect(http.StatusFound, next)
}

// Logout ends the whole session, including any guest sign-in in the same browser.
func (ac *StaffAuthController) Logout(c *gin.Context) {
	if userID := GetUserID(c); userID != 0 {
		ac.auditor.LogAuth(audit.StaffActor(userID, c.ClientIP()), "staff_logout", true)
	}
	_ = ac.sessionManager.DestroySession(c.Request)
	c.Redirect(http.StatusSeeOther, "/admin/login")
}

// SetupPage renders the first-admin form while no staff users exist.
func (ac *StaffAuthController) SetupPage(c *gin.Context) {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		ac.render(c, http.StatusInternalServerError, "admin_setup.html", gin.H{
			"Title": "Initial setup",
			"Error": "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/admin/login")
		return
	}

	ac.render(c, http.StatusOK, "admin_setup.html", gin.H{
		"Title": "Initial setup",
		"Error": c.Query("error"),
	})
}

// Setup creates the first admin account and signs it in.
func (ac *StaffAuthController) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		ac.render(c, http.StatusInternalServerError, "admin_setup.html", gin.H{
			"Title": "Initial setup",
			"Error": "Database error. Please try again.",
		})
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/admin/login")
		return
	}

	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")

	fail := func(msg string) {
		ac.render(c, http.StatusUnprocessableEntity, "admin_setup.html", gin.H{
			"Title":    "Initial setup",
			"Username": username,
			"Email":    email,
			"Error":    msg,
		})
	}

	if password != c.PostForm("confirm_password") {
		fail("Passwords do not match")
		return
	}

	user, err := ac.service.CreateUser(username, email, password, entities.UserRoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordTooShort):
			fail("Password must be at least 12 characters")
		case errors.Is(err, ErrPasswordTooLong):
			fail("Password exceeds maximum length of 72 characters")
		case errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrUsernameInvalid):
			fail("Username must be 3-64 characters, alphanumeric with underscore/hyphen only")
		case errors.Is(err, ErrEmailRequired), errors.Is(err, ErrEmailInvalid):
			fail("Please enter a valid email address")
		case errors.Is(err, ErrPasswordRequired):
			fail("Password is required")
		case errors.Is(err, ErrUserExists):
			c.Redirect(http.StatusFound, "/admin/login")
		default:
			log.Printf("Failed to create admin user: %v", err)
			fail("Failed to create user")
		}
		return
	}

	_ = ac.sessionManager.CreateSession(c.Request, user)
	ac.auditor.LogAuth(audit.StaffActor(user.ID, c.ClientIP()), "staff_setup", true)
	c.Redirect(http.StatusFound, "/admin")
}
