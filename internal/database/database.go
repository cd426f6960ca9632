package database

import (
	"fmt"
	"strings"

	"github.com/gdg-garage/garage-events-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteParams enables foreign keys, makes writers wait instead of failing
// with SQLITE_BUSY and starts every transaction with the write lock held.
const sqliteParams = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"

// Open connects to the SQLite database at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	// SQLite has a single writer; one connection keeps transactions strictly
	// serialized and keeps in-memory databases alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table and the indexes gorm tags cannot express.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.EventImage{},
		&models.Registration{},
		&models.RegistrationHistory{},
		&models.APIKey{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// At most one active registration per (event, user).
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_registrations_active
		ON registrations (event_id, user_id) WHERE canceled = false`).Error
	if err != nil {
		return fmt.Errorf("create active registration index: %w", err)
	}

	return nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}
