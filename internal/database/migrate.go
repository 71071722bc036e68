package database

import (
	"gorm.io/gorm"

	"travelwatch/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Record{},
	)
}
