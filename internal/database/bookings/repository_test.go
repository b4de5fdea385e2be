package bookings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildoasis/booking/internal/entities"
)

var day = 24 * time.Hour

type fixture struct {
	repo  *Repository
	db    *gorm.DB
	cabin entities.Cabin
	other entities.Cabin
	guest entities.Guest
	today time.Time
}

func setupTestDB(t *testing.T) *fixture {
	dbPath := filepath.Join(t.TempDir(), "test_bookings.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Cabin{}, &entities.Guest{}, &entities.Booking{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	f := &fixture{
		repo:  NewRepository(db),
		db:    db,
		cabin: entities.Cabin{Name: "001", MaxCapacity: 2, RegularPrice: 250},
		other: entities.Cabin{Name: "002", MaxCapacity: 2, RegularPrice: 350, Discount: 25},
		guest: entities.Guest{FullName: "Jonas Schmedtmann", Email: "jonas@example.com"},
		today: entities.StartOfDay(time.Now()),
	}
	require.NoError(t, db.Create(&f.cabin).Error)
	require.NoError(t, db.Create(&f.other).Error)
	require.NoError(t, db.Create(&f.guest).Error)
	return f
}

func (f *fixture) book(t *testing.T, cabinID uint, from, to int, status entities.BookingStatus) entities.Booking {
	b := entities.Booking{
		CabinID:        cabinID,
		GuestID:        f.guest.ID,
		CheckInDate:    f.today.Add(time.Duration(from) * day),
		CheckOutDate:   f.today.Add(time.Duration(to) * day),
		NumNights:      to - from,
		NumberOfGuests: 1,
		Status:         status,
	}
	require.NoError(t, f.repo.Create(&b))
	return b
}

func TestRepository_CountOverlapping(t *testing.T) {
	f := setupTestDB(t)
	existing := f.book(t, f.cabin.ID, 10, 15, entities.BookingStatusConfirmed)
	f.book(t, f.cabin.ID, 20, 25, entities.BookingStatusCancelled)
	f.book(t, f.other.ID, 0, 40, entities.BookingStatusConfirmed)

	tests := []struct {
		name      string
		from, to  int
		excludeID uint
		want      int64
	}{
		{"inside", 11, 13, 0, 1},
		{"covers", 5, 20, 0, 1},
		{"overlaps start", 8, 11, 0, 1},
		{"overlaps end", 14, 18, 0, 1},
		{"checkout on check-in day", 7, 10, 0, 0},
		{"check-in on checkout day", 15, 18, 0, 0},
		{"cancelled booking ignored", 20, 25, 0, 0},
		{"excludes itself", 11, 16, existing.ID, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := f.repo.CountOverlapping(f.cabin.ID,
				f.today.Add(time.Duration(tt.from)*day),
				f.today.Add(time.Duration(tt.to)*day),
				tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestRepository_BookedRanges(t *testing.T) {
	f := setupTestDB(t)
	f.book(t, f.cabin.ID, -10, -5, entities.BookingStatusCheckedOut)
	f.book(t, f.cabin.ID, 12, 14, entities.BookingStatusPending)
	current := f.book(t, f.cabin.ID, -1, 3, entities.BookingStatusCheckedIn)
	f.book(t, f.cabin.ID, 4, 8, entities.BookingStatusCancelled)
	f.book(t, f.other.ID, 1, 5, entities.BookingStatusConfirmed)

	ranges, err := f.repo.BookedRanges(f.cabin.ID, f.today, 0)
	require.NoError(t, err)

	want := []entities.DateRange{
		{From: f.today.Add(-1 * day), To: f.today.Add(3 * day)},
		{From: f.today.Add(12 * day), To: f.today.Add(14 * day)},
	}
	if diff := cmp.Diff(want, ranges); diff != "" {
		t.Errorf("BookedRanges mismatch (-want +got):\n%s", diff)
	}

	ranges, err = f.repo.BookedRanges(f.cabin.ID, f.today, current.ID)
	require.NoError(t, err)
	assert.Len(t, ranges, 1)
}

func TestRepository_ListForGuest(t *testing.T) {
	f := setupTestDB(t)
	f.book(t, f.cabin.ID, 1, 4, entities.BookingStatusPending)
	f.book(t, f.other.ID, 30, 33, entities.BookingStatusPending)

	list, err := f.repo.ListForGuest(f.guest.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "002", list[0].Cabin.Name)
	assert.Equal(t, "001", list[1].Cabin.Name)

	list, err = f.repo.ListForGuest(f.guest.ID + 100)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRepository_ListWithFilter(t *testing.T) {
	f := setupTestDB(t)
	f.book(t, f.cabin.ID, 1, 4, entities.BookingStatusPending)
	f.book(t, f.cabin.ID, 10, 14, entities.BookingStatusConfirmed)
	f.book(t, f.other.ID, 1, 4, entities.BookingStatusConfirmed)

	list, total, err := f.repo.List(ListFilter{Status: entities.BookingStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
	assert.Equal(t, "Jonas Schmedtmann", list[0].Guest.FullName)

	list, total, err = f.repo.List(ListFilter{CabinID: f.cabin.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)
}

func TestRepository_StatusAndPayment(t *testing.T) {
	f := setupTestDB(t)
	b := f.book(t, f.cabin.ID, 1, 4, entities.BookingStatusPending)

	require.NoError(t, f.repo.UpdateStatus(b.ID, entities.BookingStatusConfirmed))
	require.NoError(t, f.repo.MarkPaid(b.ID, true))

	got, err := f.repo.GetByID(b.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, got.Status)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "001", got.Cabin.Name)

	assert.ErrorIs(t, f.repo.UpdateStatus(9999, entities.BookingStatusConfirmed), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, f.repo.MarkPaid(9999, true), gorm.ErrRecordNotFound)
}

func TestRepository_CancelStalePending(t *testing.T) {
	f := setupTestDB(t)
	stale := f.book(t, f.cabin.ID, -3, 1, entities.BookingStatusPending)
	confirmed := f.book(t, f.cabin.ID, -8, -5, entities.BookingStatusConfirmed)
	upcoming := f.book(t, f.cabin.ID, 5, 8, entities.BookingStatusPending)

	n, err := f.repo.CancelStalePending(f.today)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for id, want := range map[uint]entities.BookingStatus{
		stale.ID:     entities.BookingStatusCancelled,
		confirmed.ID: entities.BookingStatusConfirmed,
		upcoming.ID:  entities.BookingStatusPending,
	} {
		got, err := f.repo.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
}

func TestRepository_Transaction_RollsBack(t *testing.T) {
	f := setupTestDB(t)

	err := f.repo.Transaction(func(tx *Repository) error {
		b := entities.Booking{CabinID: f.cabin.ID, GuestID: f.guest.ID, CheckInDate: f.today, CheckOutDate: f.today.Add(3 * day)}
		require.NoError(t, tx.Create(&b))
		return gorm.ErrInvalidData
	})
	assert.ErrorIs(t, err, gorm.ErrInvalidData)

	list, total, err := f.repo.List(ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestRepository_DashboardQueries(t *testing.T) {
	f := setupTestDB(t)
	paid := f.book(t, f.cabin.ID, 0, 3, entities.BookingStatusConfirmed)
	require.NoError(t, f.db.Model(&paid).Updates(map[string]any{"is_paid": true, "total_price": 750}).Error)
	f.book(t, f.other.ID, 0, 3, entities.BookingStatusPending)
	f.book(t, f.cabin.ID, 5, 8, entities.BookingStatusCancelled)

	counts, err := f.repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[entities.BookingStatusConfirmed])
	assert.Equal(t, int64(1), counts[entities.BookingStatusPending])
	assert.Equal(t, int64(1), counts[entities.BookingStatusCancelled])
	assert.Equal(t, int64(0), counts[entities.BookingStatusCheckedIn])

	revenue, err := f.repo.PaidRevenueSince(f.today.Add(-day))
	require.NoError(t, err)
	assert.Equal(t, int64(750), revenue)

	arrivals, err := f.repo.ArrivalsOn(f.today)
	require.NoError(t, err)
	assert.Len(t, arrivals, 2)

	require.NoError(t, f.repo.Delete(paid.ID))
	assert.ErrorIs(t, f.repo.Delete(paid.ID), gorm.ErrRecordNotFound)
}
