package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/jonboulle/clockwork"

	"github.com/wildoasis/booking/internal/analytics"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/maintenance"
	"github.com/wildoasis/booking/internal/services"
)

const flashKey = "flash"

// LoadTemplates parses every page and partial under path.
func LoadTemplates(path string, clock clockwork.Clock) (*template.Template, error) {
	return template.New("").Funcs(templateFuncs(clock)).ParseGlob(filepath.Join(path, "*.html"))
}

func templateFuncs(clock clockwork.Clock) template.FuncMap {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return template.FuncMap{
		"date":     func(t time.Time) string { return t.Format("Mon, Jan 02 2006") },
		"dateTime": func(t time.Time) string { return t.Format("Mon, Jan 02 2006, 3:04 PM") },
		"isoDate":  func(t time.Time) string { return t.Format("2006-01-02") },
		"fromNow":  func(t time.Time) string { return fromNow(t, clock.Now()) },
		"money":    formatMoney,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"plural":   plural,
		"statusLabel": func(s entities.BookingStatus) string {
			return strings.ReplaceAll(string(s), "_", " ")
		},
		"nextStatuses": services.NextStatuses,
		"isPast":       func(b entities.Booking) bool { return b.IsPast(clock.Now()) },
		"editable":     func(b entities.Booking) bool { return b.Editable(clock.Now()) },
		"fieldError":   fieldError,
		"toJSON": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			return template.JS(b), err
		},
	}
}

// fromNow describes a day relative to today, e.g. "Today" or "in 3 days".
func fromNow(t, now time.Time) string {
	days := entities.NightsBetween(now, t)
	switch {
	case days == 0:
		return "Today"
	case days > 0:
		return "in " + plural(days, "day")
	default:
		return plural(-days, "day") + " ago"
	}
}

// formatMoney renders whole dollars with thousands separators.
func formatMoney(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.Itoa(amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// fieldError returns the first message recorded for field.
func fieldError(errs map[string][]string, field string) string {
	if msgs := errs[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// TemplateRenderer draws pages inside the site layout. It implements auth.Renderer.
type TemplateRenderer struct {
	templates *template.Template
	sessions  *auth.SessionManager
	siteName  string
	analytics *analytics.Plausible
}

func NewTemplateRenderer(templates *template.Template, sessions *auth.SessionManager, siteName string) *TemplateRenderer {
	return &TemplateRenderer{templates: templates, sessions: sessions, siteName: siteName}
}

// HTML renders name with the layout data every page needs.
func (r *TemplateRenderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["SiteName"] = r.siteName
	data["Path"] = c.Request.URL.Path
	data["CSRFToken"] = auth.GetCSRFToken(c)
	data["CSRFField"] = auth.CSRFFormField
	data["Guest"] = auth.GetGuest(c)
	data["IsStaff"] = auth.IsStaff(c)
	data["StaffName"] = auth.GetUsername(c)
	data["Year"] = time.Now().Year()
	// Staff views stay out of visitor statistics.
	if !auth.IsStaff(c) {
		data["Analytics"] = r.analytics.ScriptTag()
	}
	if msg := c.GetString(maintenance.ContextKey); msg != "" {
		data["Maintenance"] = msg
	}
	if r.sessions != nil {
		if msg := r.sessions.PopString(c.Request.Context(), flashKey); msg != "" {
			data["Flash"] = msg
		}
	}

	c.Render(status, render.HTML{Template: r.templates, Name: name, Data: data})
}

// setFlash stores a one-time message shown on the next page.
func setFlash(c *gin.Context, sessions *auth.SessionManager, msg string) {
	if sessions != nil {
		sessions.Put(c.Request.Context(), flashKey, msg)
	}
}

// renderError draws the error page, or JSON for API clients.
func renderError(c *gin.Context, r auth.Renderer, status int, msg string) {
	if wantsJSON(c) {
		respondError(c, status, msg)
		return
	}
	r.HTML(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": msg,
	})
}

// renderServiceError maps a service error to a status and draws it. Internal
// errors are logged and hidden from the client.
func renderServiceError(c *gin.Context, r auth.Renderer, err error, context string) {
	if wantsJSON(c) {
		respondServiceError(c, err, context)
		return
	}
	if ve, ok := services.AsValidationError(err); ok {
		renderError(c, r, http.StatusUnprocessableEntity, ve.Error())
		return
	}
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("Internal error (%s): %v", context, err)
	}
	renderError(c, r, status, msg)
}
