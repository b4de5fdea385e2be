package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"
)

func TestOpenRedirectPrevention(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path", "", "/account"},
		{"root path", "/", "/"},
		{"local path", "/cabins/3", "/cabins/3"},
		{"local path with query", "/cabins?capacity=small", "/cabins?capacity=small"},
		{"protocol-relative URL", "//evil.com", "/account"},
		{"full URL with scheme", "https://evil.com", "/account"},
		{"URL with scheme in path", "/https://evil.com", "/account"},
		{"backslash escape attempt", "/foo\\bar", "/account"},
		{"backslash at start", "\\evil.com", "/account"},
		{"javascript URL", "javascript:alert(1)", "/account"},
		{"no leading slash", "evil.com", "/account"},
		{"tab before second slash", "/\t/evil.com", "/account"},
		{"newline before second slash", "/\n/evil.com", "/account"},
		{"carriage return", "/\r/evil.com", "/account"},
		{"delete character", "/\x7f/evil.com", "/account"},
		{"control character mid path", "/cabins\x00", "/account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeRedirectPath(tt.input, "/account"); got != tt.expected {
				t.Errorf("sanitizeRedirectPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeRedirectPath_DecodedQuery(t *testing.T) {
	router := gin.New()
	router.GET("/go", func(c *gin.Context) {
		c.Redirect(http.StatusFound, sanitizeRedirectPath(c.Query("next"), "/account"))
	})

	for _, next := range []string{"/%09/evil.com", "/%0a/evil.com", "/%0d%0a/evil.com", "/%7f/evil.com"} {
		t.Run(next, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/go?next="+next, nil))
			if loc := rr.Header().Get("Location"); loc != "/account" {
				t.Errorf("Location = %q, want /account", loc)
			}
		})
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/go?next=%2Fcabins%2F3", nil))
	if loc := rr.Header().Get("Location"); loc != "/cabins/3" {
		t.Errorf("Location = %q, want /cabins/3", loc)
	}
}

func TestRateLimiter_LocksAfterMaxAttempts(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: 5 * time.Minute,
		CleanupInterval: time.Hour,
		Clock:           clock,
	})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if allowed, _ := rl.Allow("192.168.1.1", "frontdesk"); !allowed {
			t.Fatalf("Attempt %d should be allowed", i+1)
		}
		rl.RecordFailure("192.168.1.1", "frontdesk")
	}

	allowed, retryAfter := rl.Allow("192.168.1.1", "FrontDesk")
	if allowed {
		t.Fatal("4th attempt should be blocked, regardless of case")
	}
	if retryAfter != 5*time.Minute {
		t.Errorf("retryAfter = %v, want 5m", retryAfter)
	}

	clock.Advance(5*time.Minute + time.Second)
	if allowed, _ := rl.Allow("192.168.1.1", "frontdesk"); !allowed {
		t.Error("Should be allowed once the lockout has passed")
	}
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 3, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "frontdesk")
	rl.RecordFailure("192.168.1.1", "frontdesk")
	rl.RecordSuccess("192.168.1.1", "frontdesk")

	if allowed, _ := rl.Allow("192.168.1.1", "frontdesk"); !allowed {
		t.Error("Should be allowed after successful login")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "alice")
	rl.RecordFailure("192.168.1.1", "alice")

	if allowed, _ := rl.Allow("192.168.1.1", "alice"); allowed {
		t.Error("alice should be blocked")
	}
	if allowed, _ := rl.Allow("192.168.1.1", "bob"); !allowed {
		t.Error("bob should not be affected")
	}
	if allowed, _ := rl.Allow("10.0.0.1", "alice"); !allowed {
		t.Error("another IP should not be affected")
	}
}

func TestRateLimiter_CleanupDropsExpiredRecords(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     5,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
		Clock:           clock,
	})
	defer rl.Stop()

	rl.RecordFailure("192.168.1.1", "frontdesk")
	if rl.size() != 1 {
		t.Fatalf("size = %d, want 1", rl.size())
	}

	clock.Advance(3 * time.Minute)
	rl.cleanup()

	if rl.size() != 0 {
		t.Errorf("size after cleanup = %d, want 0", rl.size())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{})
	rl.Stop()
	rl.Stop()
}

func TestRateLimiter_Middleware(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(RateLimitConfig{MaxAttempts: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	router := gin.New()
	router.POST("/admin/login", rl.Middleware("username"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader("username=frontdesk"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("first attempt: %d", code)
	}
	rl.RecordFailure("192.0.2.1", "frontdesk") // httptest remote address
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("throttled attempt: got %d, want 429", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(
		[]string{"https://plausible.io/js/script.js"},
		"https://abc.supabase.co/storage/v1/object/public/cabin-images/x.jpg"))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	headers := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, expected := range headers {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("Header %s = %q, want %q", header, got, expected)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	for _, want := range []string{
		"https://abc.supabase.co",
		"https://lh3.googleusercontent.com",
		"https://flagcdn.com",
		"frame-ancestors 'none'",
		"script-src 'self' https://plausible.io;",
		"connect-src 'self' https://plausible.io;",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP missing %q: %s", want, csp)
		}
	}
	if rr.Header().Get("Permissions-Policy") == "" {
		t.Error("Permissions-Policy header should be set")
	}
}

func TestExtractOrigin(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://abc.supabase.co/storage/v1/object", "https://abc.supabase.co"},
		{"http://localhost:8188/uploads/x.png", "http://localhost:8188"},
		{"cdn.example.com/img", "https://cdn.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractOrigin(tt.input); got != tt.expected {
			t.Errorf("extractOrigin(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS should be set behind an HTTPS proxy")
	}
}

func TestUsernameValidation(t *testing.T) {
	valid := []string{"abc", "front_desk", "desk-2", strings.Repeat("a", 64)}
	invalid := []string{"ab", "with space", "emoji😀", strings.Repeat("a", 65)}

	for _, u := range valid {
		if !usernamePattern.MatchString(u) {
			t.Errorf("%q should be valid", u)
		}
	}
	for _, u := range invalid {
		if usernamePattern.MatchString(u) {
			t.Errorf("%q should be invalid", u)
		}
	}
}

func TestEmailValidation(t *testing.T) {
	valid := []string{"desk@wildoasis.com", "first.last+tag@example.co.uk"}
	invalid := []string{"plain", "@example.com", "user@", "user@host"}

	for _, e := range valid {
		if !emailPattern.MatchString(e) {
			t.Errorf("%q should be valid", e)
		}
	}
	for _, e := range invalid {
		if emailPattern.MatchString(e) {
			t.Errorf("%q should be invalid", e)
		}
	}
}
