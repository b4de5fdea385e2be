package maintenance

import (
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// DefaultMessage is shown when no message is configured.
const DefaultMessage = "Bookings are paused for maintenance. Please check back soon."

// ContextKey holds the maintenance message for template rendering.
const ContextKey = "maintenance_message"

// retryAfterSeconds is sent with every blocked request.
const retryAfterSeconds = "300"

// Renderer draws the site's error page for blocked browser requests.
type Renderer interface {
	HTML(c *gin.Context, status int, name string, data gin.H)
}

// Middleware blocks write operations while the site is in maintenance mode.
// Reads always pass so guests can still browse cabins.
type Middleware struct {
	enabled  bool
	message  string
	bypass   func(*gin.Context) bool
	renderer Renderer
}

// NewMiddleware creates a maintenance middleware. Requests for which bypass
// returns true are never blocked; pass nil to block everyone.
func NewMiddleware(enabled bool, message string, bypass func(*gin.Context) bool) *Middleware {
	if message == "" {
		message = DefaultMessage
	}
	return &Middleware{enabled: enabled, message: message, bypass: bypass}
}

// IsEnabled returns whether maintenance mode is active.
func (m *Middleware) IsEnabled() bool {
	return m.enabled
}

// SetRenderer makes blocked form posts get the site's error page. Without
// one a minimal HTML page is sent.
func (m *Middleware) SetRenderer(r Renderer) {
	m.renderer = r
}

// Message returns the text shown to visitors.
func (m *Middleware) Message() string {
	return m.message
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}
		c.Set(ContextKey, m.message)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		if m.bypass != nil && m.bypass(c) {
			c.Next()
			return
		}

		m.respondBlocked(c)
	}
}

// isAllowedPath lets sign-in and sign-out through so staff can still log in.
func (m *Middleware) isAllowedPath(path string) bool {
	allowedPaths := []string{
		"/login",
		"/logout",
		"/auth/",
		"/admin/login",
		"/admin/logout",
	}

	for _, allowed := range allowedPaths {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}

// respondBlocked answers 503 with JSON for API clients and the error page
// for browsers.
func (m *Middleware) respondBlocked(c *gin.Context) {
	c.Header("Retry-After", retryAfterSeconds)

	if strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json") {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":       m.message,
			"maintenance": true,
		})
		return
	}

	if m.renderer != nil {
		m.renderer.HTML(c, http.StatusServiceUnavailable, "error.html", gin.H{
			"Title":   http.StatusText(http.StatusServiceUnavailable),
			"Status":  http.StatusServiceUnavailable,
			"Message": m.message,
		})
		c.Abort()
		return
	}

	c.Data(http.StatusServiceUnavailable, "text/html; charset=utf-8", []byte(
		"<!DOCTYPE html><title>Service Unavailable</title><p>"+html.EscapeString(m.message)+"</p>"))
	c.Abort()
}
