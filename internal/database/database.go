package database

import (
	"log"

	"github.com/gdg-garage/groupy-loopy-api/internal/config"
	"github.com/gdg-garage/groupy-loopy-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func dialector(cfg *config.Config) gorm.Dialector {
	if cfg.DatabaseDriver == "postgres" {
		return postgres.Open(cfg.DatabaseDSN)
	}
	return sqlite.Open(cfg.DatabasePath)
}

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(dialector(cfg), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}
