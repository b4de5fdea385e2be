package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/entities"
)

// Context keys for identity data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyGuest    = "auth_guest"
)

// Middleware resolves the staff user and the guest from the session and
// guards routes that need either.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// Handler loads identities into the Gin context. It never rejects a request;
// RequireGuest and RequireStaff do that per route group.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if guest := m.sessionManager.GetGuest(c.Request); guest != nil {
			c.Set(ContextKeyGuest, guest)
		}
		if user := m.trySessionAuth(c); user != nil {
			c.Set(ContextKeyUserID, user.ID)
			c.Set(ContextKeyUsername, user.Username)
			c.Set(ContextKeyRole, user.Role)
		}
		c.Next()
	}
}

// trySessionAuth loads the staff user, ignoring sessions of deleted accounts.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}
	return user
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func loginRedirect(loginPath string, c *gin.Context) string {
	return loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
}

// RequireGuest rejects requests without a signed-in guest.
func (m *Middleware) RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetGuest(c) != nil {
			c.Next()
			return
		}
		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "You must be logged in",
			})
			return
		}
		c.Redirect(http.StatusFound, loginRedirect("/login", c))
		c.Abort()
	}
}

// RequireStaff rejects requests without a signed-in staff member.
func (m *Middleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) != 0 {
			c.Next()
			return
		}
		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Redirect(http.StatusFound, loginRedirect("/admin/login", c))
		c.Abort()
	}
}

// RequireRole returns a middleware that requires one of the given staff roles.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !roleSet[GetUserRole(c)] {
			if isAPIRequest(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "insufficient permissions",
				})
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the staff user's ID from the context. Returns 0 if none.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the staff username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

// GetUserRole retrieves the staff role from the context.
func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// GetGuest retrieves the signed-in guest from the context, or nil.
func GetGuest(c *gin.Context) *GuestIdentity {
	if g, exists := c.Get(ContextKeyGuest); exists {
		if guest, ok := g.(*GuestIdentity); ok {
			return guest
		}
	}
	return nil
}

// GetGuestID returns the signed-in guest's ID, or 0.
func GetGuestID(c *gin.Context) uint {
	if guest := GetGuest(c); guest != nil {
		return guest.ID
	}
	return 0
}

// IsStaff returns true if a staff member is signed in.
func IsStaff(c *gin.Context) bool {
	return GetUserID(c) != 0
}
