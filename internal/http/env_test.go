package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/database"
	dbaudit "github.com/wildoasis/booking/internal/database/audit"
	"github.com/wildoasis/booking/internal/database/bookings"
	"github.com/wildoasis/booking/internal/database/cabins"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/database/settings"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/services"
	"github.com/wildoasis/booking/internal/storage"
)

// testNow is mid-morning so the start of the day differs from the clock.
var testNow = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

// jsonRenderer answers with the template name and data so tests can inspect them.
type jsonRenderer struct{}

func (jsonRenderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["template"] = name
	c.JSON(status, data)
}

type testEnv struct {
	db       *database.Database
	clock    *clockwork.FakeClock
	audit    *audit.Service
	cabins   *services.CabinService
	guests   *services.GuestService
	bookings *services.BookingService
	settings *services.SettingsService
}

func setupEnv(t *testing.T, store storage.Client) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "http.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:    db,
		clock: clockwork.NewFakeClockAt(testNow),
		audit: audit.NewService(dbaudit.NewRepository(db.DB)),
	}
	t.Cleanup(env.audit.Wait)

	cabinRepo := cabins.NewRepository(db.DB)
	bookingRepo := bookings.NewRepository(db.DB)
	guestRepo := guests.NewRepository(db.DB, nil)
	settingsRepo := settings.NewRepository(db.DB)

	env.cabins = services.NewCabinService(cabinRepo, bookingRepo, store, nil, env.audit, env.clock)
	env.guests = services.NewGuestService(guestRepo, env.audit)
	env.bookings = services.NewBookingService(bookingRepo, cabinRepo, guestRepo, settingsRepo, env.audit, env.clock)
	env.settings = services.NewSettingsService(settingsRepo, env.audit)
	return env
}

func (env *testEnv) createCabin(t *testing.T, name string, capacity, price, discount int) *entities.Cabin {
	t.Helper()
	cabin := &entities.Cabin{Name: name, MaxCapacity: capacity, RegularPrice: price, Discount: discount}
	require.NoError(t, env.db.DB.Create(cabin).Error)
	return cabin
}

func (env *testEnv) createGuest(t *testing.T, email string) *entities.Guest {
	t.Helper()
	guest, _, err := env.guests.GetOrCreateByEmail(email, "Test Guest")
	require.NoError(t, err)
	return guest
}

// book creates a booking starting `from` days after today.
func (env *testEnv) book(t *testing.T, guestID, cabinID uint, from, nights int) *entities.Booking {
	t.Helper()
	today := entities.StartOfDay(testNow)
	booking, err := env.bookings.CreateBooking(guestID, services.BookingInput{
		CabinID:        cabinID,
		CheckIn:        today.AddDate(0, 0, from),
		CheckOut:       today.AddDate(0, 0, from+nights),
		NumberOfGuests: 2,
	})
	require.NoError(t, err)
	return booking
}

func (env *testEnv) reload(t *testing.T, bookingID uint) *entities.Booking {
	t.Helper()
	var b entities.Booking
	require.NoError(t, env.db.DB.First(&b, bookingID).Error)
	return &b
}

// asGuest puts a signed-in guest on every request.
func asGuest(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyGuest, &auth.GuestIdentity{ID: id, Name: "Test Guest"})
		c.Next()
	}
}

// asStaff puts a signed-in staff member on every request.
func asStaff(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, id)
		c.Set(auth.ContextKeyUsername, "admin")
		c.Set(auth.ContextKeyRole, entities.UserRoleAdmin)
		c.Next()
	}
}

func day(offset int) string {
	return entities.StartOfDay(testNow).AddDate(0, 0, offset).Format(dateLayout)
}

func postForm(router http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router http.Handler, target string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
