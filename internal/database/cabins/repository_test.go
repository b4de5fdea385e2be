package cabins

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildoasis/booking/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	dbPath := filepath.Join(t.TempDir(), "test_cabins.db")

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

	return NewRepository(db), db
}

func createCabins(t *testing.T, repo *Repository) []entities.Cabin {
	cabins := []entities.Cabin{
		{Name: "003", MaxCapacity: 4, RegularPrice: 300},
		{Name: "001", MaxCapacity: 2, RegularPrice: 250},
		{Name: "004", MaxCapacity: 6, RegularPrice: 500, Discount: 50},
		{Name: "008", MaxCapacity: 10, RegularPrice: 1000, Discount: 100},
	}
	for i := range cabins {
		require.NoError(t, repo.Create(&cabins[i]))
	}
	return cabins
}

func TestRepository_List(t *testing.T) {
	repo, _ := setupTestDB(t)
	createCabins(t, repo)

	t.Run("all ordered by name", func(t *testing.T) {
		list, err := repo.List(CapacityFilter{})
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "001", list[0].Name)
		assert.Equal(t, "008", list[3].Name)
	})

	t.Run("medium", func(t *testing.T) {
		list, err := repo.List(CapacityFilter{Min: 4, Max: 7})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "003", list[0].Name)
		assert.Equal(t, "004", list[1].Name)
	})

	t.Run("large has no upper bound", func(t *testing.T) {
		list, err := repo.List(CapacityFilter{Min: 8})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "008", list[0].Name)
	})
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.GetByID(42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetWithBookings(t *testing.T) {
	repo, db := setupTestDB(t)
	cabins := createCabins(t, repo)
	guest := entities.Guest{FullName: "Alice Smith", Email: "alice@example.com"}
	require.NoError(t, db.Create(&guest).Error)

	today := entities.StartOfDay(time.Now())
	day := 24 * time.Hour
	bookings := []entities.Booking{
		{CabinID: cabins[0].ID, GuestID: guest.ID, CheckInDate: today.Add(10 * day), CheckOutDate: today.Add(13 * day), Status: entities.BookingStatusConfirmed},
		{CabinID: cabins[0].ID, GuestID: guest.ID, CheckInDate: today.Add(2 * day), CheckOutDate: today.Add(5 * day), Status: entities.BookingStatusPending},
		{CabinID: cabins[0].ID, GuestID: guest.ID, CheckInDate: today.Add(20 * day), CheckOutDate: today.Add(23 * day), Status: entities.BookingStatusCancelled},
		{CabinID: cabins[0].ID, GuestID: guest.ID, CheckInDate: today.Add(-10 * day), CheckOutDate: today.Add(-7 * day), Status: entities.BookingStatusCheckedOut},
		{CabinID: cabins[1].ID, GuestID: guest.ID, CheckInDate: today.Add(2 * day), CheckOutDate: today.Add(5 * day), Status: entities.BookingStatusPending},
	}
	for i := range bookings {
		require.NoError(t, db.Omit("Cabin", "Guest").Create(&bookings[i]).Error)
	}

	cabin, err := repo.GetWithBookings(cabins[0].ID, today)
	require.NoError(t, err)
	require.Len(t, cabin.Bookings, 2)
	assert.True(t, cabin.Bookings[0].CheckInDate.Equal(today.Add(2*day)))
	assert.True(t, cabin.Bookings[1].CheckInDate.Equal(today.Add(10*day)))
}

func TestRepository_UpdateAndNameTaken(t *testing.T) {
	repo, _ := setupTestDB(t)
	cabins := createCabins(t, repo)

	cabin := cabins[1]
	cabin.Description = "A cozy small cabin in the woods."
	require.NoError(t, repo.Update(&cabin))

	got, err := repo.GetByID(cabin.ID)
	require.NoError(t, err)
	assert.Equal(t, "A cozy small cabin in the woods.", got.Description)

	taken, err := repo.NameTaken("003", cabin.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.NameTaken("001", cabin.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRepository_Delete(t *testing.T) {
	repo, db := setupTestDB(t)
	cabins := createCabins(t, repo)
	guest := entities.Guest{FullName: "Mohammed Ali", Email: "mohammed@example.com"}
	require.NoError(t, db.Create(&guest).Error)
	booking := entities.Booking{CabinID: cabins[0].ID, GuestID: guest.ID, CheckInDate: time.Now(), CheckOutDate: time.Now().Add(72 * time.Hour)}
	require.NoError(t, db.Omit("Cabin", "Guest").Create(&booking).Error)

	require.NoError(t, repo.Delete(cabins[0].ID))

	_, err := repo.GetByID(cabins[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var remaining int64
	require.NoError(t, db.Model(&entities.Booking{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.ErrorIs(t, repo.Delete(cabins[0].ID), gorm.ErrRecordNotFound)

	ids, err := repo.IDs()
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}
