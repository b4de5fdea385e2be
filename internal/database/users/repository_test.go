package users

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

func setupTestDB(t *testing.T) *Repository {
	dbPath := filepath.Join(t.TempDir(), "test_users.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestRepository_CreateAndLookup(t *testing.T) {
	repo := setupTestDB(t)

	user := &entities.User{Username: "frontdesk", Email: "desk@wildoasis.example", PasswordHash: "x", Role: entities.UserRoleStaff}
	require.NoError(t, repo.Create(user))
	assert.NotZero(t, user.ID)

	byName, err := repo.GetByLogin("frontdesk")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := repo.GetByLogin("desk@wildoasis.example")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByLogin("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repo.Exists("frontdesk", "other@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_LoginBookkeeping(t *testing.T) {
	repo := setupTestDB(t)
	user := &entities.User{Username: "manager", Email: "manager@example.com", PasswordHash: "x", Role: entities.UserRoleAdmin}
	require.NoError(t, repo.Create(user))

	lockedUntil := time.Now().Add(30 * time.Minute)
	require.NoError(t, repo.RecordFailedLogin(user.ID, 5, &lockedUntil))

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FailedLoginCount)
	require.NotNil(t, got.LockedUntil)

	require.NoError(t, repo.RecordLogin(user.ID, time.Now()))

	got, err = repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginCount)
	assert.Nil(t, got.LockedUntil)
	assert.NotNil(t, got.LastLoginAt)

	require.NoError(t, repo.UpdatePassword(user.ID, "new-hash"))
	assert.ErrorIs(t, repo.UpdatePassword(9999, "h"), gorm.ErrRecordNotFound)
}
