// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database. It is pinned to a
// single connection since every sqlite :memory: connection is its own
// database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func CreateTrip(t *testing.T, db *gorm.DB, trip models.Trip) models.Trip {
	t.Helper()
	if trip.Title == "" {
		trip.Title = "Nahal Amud"
	}
	if trip.Date.IsZero() {
		trip.Date = time.Now().Add(72 * time.Hour)
	}
	if err := db.Create(&trip).Error; err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}
	return trip
}

func CreateRegistration(t *testing.T, db *gorm.DB, reg models.Registration) models.Registration {
	t.Helper()
	if reg.PaymentStatus == "" {
		reg.PaymentStatus = models.PaymentPending
	}
	if reg.EditToken == "" {
		reg.EditToken = uuid.NewString()
	}
	if err := db.Create(&reg).Error; err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	return reg
}

// EnableForeignKeys turns on sqlite foreign key enforcement, which is off by
// default, so constraints behave as they do on postgres.
func EnableForeignKeys(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
}
