package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildoasis/booking/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	dbPath := filepath.Join(t.TempDir(), "test_settings.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Settings{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db), db
}

func TestRepository_Get_CreatesDefaults(t *testing.T) {
	repo, db := setupTestDB(t)

	s, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSettings().BreakfastPrice, s.BreakfastPrice)

	_, err = repo.Get()
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&entities.Settings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_Update(t *testing.T) {
	repo, _ := setupTestDB(t)

	updated, err := repo.Update(entities.Settings{
		MinBookingLength:    2,
		MaxBookingLength:    14,
		MaxGuestsPerBooking: 6,
		BreakfastPrice:      20,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MinBookingLength)
	assert.Equal(t, 14, updated.MaxBookingLength)
	assert.Equal(t, 6, updated.MaxGuestsPerBooking)
	assert.Equal(t, 20, updated.BreakfastPrice)

	again, err := repo.Get()
	require.NoError(t, err)
	assert.Equal(t, updated.ID, again.ID)
	assert.Equal(t, 20, again.BreakfastPrice)
}
