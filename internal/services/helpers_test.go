package services

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/database"
	"github.com/wildoasis/booking/internal/database/bookings"
	"github.com/wildoasis/booking/internal/database/cabins"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/database/settings"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/storage"
)

// testNow is 10:00 UTC so StartOfDay differs from the clock time.
var testNow = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

type recordedEvent struct {
	kind   string
	action string
	id     uint
	err    error
}

type recordingAudit struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingAudit) add(e recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) LogBooking(_ audit.Actor, action string, id uint, _ string, _ map[string]any, err error) {
	r.add(recordedEvent{kind: "booking", action: action, id: id, err: err})
}

func (r *recordingAudit) LogCabin(_ audit.Actor, action string, id uint, _ string, err error) {
	r.add(recordedEvent{kind: "cabin", action: action, id: id, err: err})
}

func (r *recordingAudit) LogGuest(_ audit.Actor, action string, id uint, _ string) {
	r.add(recordedEvent{kind: "guest", action: action, id: id})
}

func (r *recordingAudit) LogSettings(audit.Actor, string) {
	r.add(recordedEvent{kind: "settings", action: "settings_update"})
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.action)
	}
	return out
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Upload(_ context.Context, key, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memoryStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

var _ storage.Client = (*memoryStore)(nil)

type testEnv struct {
	db       *database.Database
	clock    *clockwork.FakeClock
	audit    *recordingAudit
	store    *memoryStore
	cabins   *CabinService
	guests   *GuestService
	bookings *BookingService
	settings *SettingsService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test_services.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:    db,
		clock: clockwork.NewFakeClockAt(testNow),
		audit: &recordingAudit{},
		store: newMemoryStore(),
	}

	cabinRepo := cabins.NewRepository(db.DB)
	bookingRepo := bookings.NewRepository(db.DB)
	guestRepo := guests.NewRepository(db.DB, nil)
	settingsRepo := settings.NewRepository(db.DB)

	env.cabins = NewCabinService(cabinRepo, bookingRepo, env.store, nil, env.audit, env.clock)
	env.guests = NewGuestService(guestRepo, env.audit)
	env.bookings = NewBookingService(bookingRepo, cabinRepo, guestRepo, settingsRepo, env.audit, env.clock)
	env.settings = NewSettingsService(settingsRepo, env.audit)
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

// stay returns a booking input starting `from` days after today and lasting `nights`.
func (env *testEnv) stay(cabinID uint, from, nights, guests int) BookingInput {
	today := entities.StartOfDay(env.clock.Now())
	return BookingInput{
		CabinID:        cabinID,
		CheckIn:        today.AddDate(0, 0, from),
		CheckOut:       today.AddDate(0, 0, from+nights),
		NumberOfGuests: guests,
	}
}

func jpeg(name string, size int) *ImageUpload {
	return &ImageUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Size:        int64(size),
		Content:     bytes.NewReader(bytes.Repeat([]byte{0xff}, size)),
	}
}
