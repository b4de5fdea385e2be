// Package auth provides sign-in for the two kinds of visitors.
//
// Guests sign in with Google (see the oauth2 package). The first successful
// sign-in creates their guest profile; the session remembers the guest ID,
// name, email and avatar.
//
// Staff sign in with a username or email and a bcrypt password at
// /admin/login. The first admin is created at /admin/setup while no staff
// users exist, or with the create-admin command. Repeated failures lock the
// account and the per-IP rate limiter throttles the login form.
//
// Both identities share one scs session stored in SQLite, so a staff member
// can also browse as a guest. Every unsafe request passes gorilla/csrf.
//
// # Configuration
//
//	AUTH_SESSION_LIFETIME=24h   # Session duration
//	AUTH_BCRYPT_COST=12         # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true    # HTTPS-only cookies
//	AUTH_CSRF_KEY=<32 bytes>    # Random per process when empty
//
// # Usage
//
//	sm, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	mw := auth.NewMiddleware(authService, sm)
//	router.Use(sm.LoadAndSave(), mw.Handler())
//	account := router.Group("/account", mw.RequireGuest())
//	admin := router.Group("/admin", mw.RequireStaff())
package auth
