package auth

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Image hosts the pages load from besides the configured object store.
var defaultImageOrigins = []string{
	"https://lh3.googleusercontent.com", // Google profile pictures
	"https://flagcdn.com",               // nationality flags
}

// SecurityHeadersMiddleware adds security headers to all responses.
// scriptURLs are extra hosts allowed in script-src and connect-src, such as a
// page analytics script. imageURLs are extra hosts allowed in img-src,
// typically the object store.
func SecurityHeadersMiddleware(scriptURLs []string, imageURLs ...string) gin.HandlerFunc {
	scriptSrc, connectSrc := "'self'", "'self'"
	for _, raw := range scriptURLs {
		if origin := extractOrigin(raw); origin != "" {
			scriptSrc += " " + origin
			connectSrc += " " + origin
		}
	}
	imgSrc := "'self' data:"
	for _, origin := range defaultImageOrigins {
		imgSrc += " " + origin
	}
	for _, raw := range imageURLs {
		if origin := extractOrigin(raw); origin != "" {
			imgSrc += " " + origin
		}
	}

	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Explicit host keeps form-action working behind reverse proxies.
		formAction := "'self' https://accounts.google.com"
		if host := c.Request.Host; host != "" {
			formAction += " https://" + host
		}

		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src "+scriptSrc+"; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src "+imgSrc+"; "+
				"font-src 'self'; "+
				"connect-src "+connectSrc+"; "+
				"frame-ancestors 'none'; "+
				"form-action "+formAction)

		c.Header("Permissions-Policy",
			"accelerometer=(), camera=(), geolocation=(), gyroscope=(), "+
				"magnetometer=(), microphone=(), payment=(), usb=()")

		c.Next()
	}
}

// extractOrigin extracts the origin (scheme + host) from a URL for CSP
func extractOrigin(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}

	scheme := parsed.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + parsed.Host
}

// StrictTransportSecurityMiddleware adds HSTS when the request came over HTTPS.
func StrictTransportSecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
