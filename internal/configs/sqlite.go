package config

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/delloop-lab/taskorilla-sub000/internal/models"
)

func New(dsn string) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Task{},
		&models.Bid{},
		&models.ProgressUpdate{},
		&models.Review{},
		&models.User{},
		&models.PlatformSetting{},
	); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	return db
}
