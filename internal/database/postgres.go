package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"travelwatch/internal/config"
)

// Open connects with TranslateError enabled so unique-constraint
// violations surface as gorm.ErrDuplicatedKey; the repositories depend
// on that for race-safe conflict detection.
func Open(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
}
