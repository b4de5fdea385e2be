package maintenance

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *Middleware) *gin.Engine {
	router := gin.New()
	router.Use(m.Handler())
	ok := func(c *gin.Context) {
		c.String(http.StatusOK, "OK:"+c.GetString(ContextKey))
	}
	router.GET("/cabins", ok)
	router.POST("/account/reservations", ok)
	router.POST("/api/things", ok)
	router.POST("/login/google", ok)
	router.POST("/admin/login", ok)
	return router
}

func TestNewMiddleware(t *testing.T) {
	m := NewMiddleware(true, "", nil)
	if !m.IsEnabled() {
		t.Error("Expected middleware to be enabled")
	}
	if m.Message() != DefaultMessage {
		t.Errorf("Expected default message, got %q", m.Message())
	}

	m = NewMiddleware(false, "Back at noon", nil)
	if m.IsEnabled() {
		t.Error("Expected middleware to be disabled")
	}
	if m.Message() != "Back at noon" {
		t.Errorf("Expected custom message, got %q", m.Message())
	}
}

func TestMiddleware_AllowsReads(t *testing.T) {
	router := newRouter(NewMiddleware(true, "Paused", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cabins", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK:Paused" {
		t.Errorf("Expected message in context, got %s", w.Body.String())
	}
}

func TestMiddleware_BlocksJSONWrites(t *testing.T) {
	router := newRouter(NewMiddleware(true, "Paused", nil))

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body: %v", err)
	}
	if body["error"] != "Paused" || body["maintenance"] != true {
		t.Errorf("Unexpected body: %v", body)
	}
}

// pageRenderer stands in for the site's template renderer.
type pageRenderer struct {
	pages []string
}

func (r *pageRenderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	r.pages = append(r.pages, name)
	c.Data(status, "text/html; charset=utf-8", []byte(name+":"+data["Message"].(string)))
}

func TestMiddleware_FormPostGetsErrorPage(t *testing.T) {
	m := NewMiddleware(true, "Paused", nil)
	renderer := &pageRenderer{}
	m.SetRenderer(renderer)
	router := newRouter(m)

	req := httptest.NewRequest(http.MethodPost, "/account/reservations", nil)
	req.Host = "wildoasis.test"
	req.Header.Set("Referer", "http://wildoasis.test/cabins/3?x=1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "" {
		t.Errorf("Expected no redirect, got %s", loc)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %s", ct)
	}
	if w.Body.String() != "error.html:Paused" {
		t.Errorf("Expected error page, got %s", w.Body.String())
	}
	if len(renderer.pages) != 1 {
		t.Errorf("Expected one rendered page, got %v", renderer.pages)
	}
}

func TestMiddleware_FormPostWithoutRenderer(t *testing.T) {
	router := newRouter(NewMiddleware(true, "Paused <soon>", nil))

	req := httptest.NewRequest(http.MethodPost, "/account/reservations", nil)
	req.Header.Set("Referer", "https://evil.example/phish")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Paused &lt;soon&gt;") {
		t.Errorf("Expected escaped message, got %s", w.Body.String())
	}
}

func TestMiddleware_AllowsSignIn(t *testing.T) {
	router := newRouter(NewMiddleware(true, "Paused", nil))

	for _, path := range []string{"/login/google", "/admin/login"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestMiddleware_Bypass(t *testing.T) {
	staff := func(c *gin.Context) bool { return c.GetHeader("X-Staff") == "1" }
	router := newRouter(NewMiddleware(true, "Paused", staff))

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.Header.Set("X-Staff", "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected bypass to pass, got %d", w.Code)
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	router := newRouter(NewMiddleware(false, "Paused", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/things", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK:" {
		t.Errorf("Expected no message in context, got %s", w.Body.String())
	}
}
