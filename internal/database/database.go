package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildoasis/booking/internal/entities"
)

// Models lists every table owned by the application, in migration order.
var Models = []any{
	&entities.Cabin{},
	&entities.Guest{},
	&entities.Booking{},
	&entities.Settings{},
	&entities.User{},
	&entities.AuditEvent{},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, logger.Warn)
}

// Open connects with an explicit GORM log level. Tests pass logger.Silent.
func Open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.ensureSettings(); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the connection is alive. Used by /health.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// ensureSettings creates the single settings row if the table is empty.
func (d *Database) ensureSettings() error {
	var existing entities.Settings
	err := d.DB.First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	defaults := entities.DefaultSettings()
	if err := d.DB.Create(&defaults).Error; err != nil {
		return err
	}
	log.Printf("Created default booking settings")
	return nil
}

// Reset empties every domain table. Staff accounts and the audit trail survive.
func (d *Database) Reset() error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&entities.Booking{}, &entities.Guest{}, &entities.Cabin{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		defaults := entities.DefaultSettings()
		return tx.Model(&entities.Settings{}).Where("1 = 1").Updates(map[string]any{
			"min_booking_length":     defaults.MinBookingLength,
			"max_booking_length":     defaults.MaxBookingLength,
			"max_guests_per_booking": defaults.MaxGuestsPerBooking,
			"breakfast_price":        defaults.BreakfastPrice,
		}).Error
	})
}
