// Package database opens the GORM connection used by the repositories.
package database

import (
	"github.com/samber/oops"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"usersvc/internal/config"
	"usersvc/internal/models"
)

// Open connects to the database named by driver and dsn. TranslateError is
// always enabled so duplicate keys surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, oops.Code("DB_DRIVER").With("driver", driver).Errorf("unsupported database driver")
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, oops.Code("DB_OPEN").With("driver", driver).Wrapf(err, "connect")
	}
	return db, nil
}

// Migrate creates or updates the pet and account tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Pet{}, &models.Account{}); err != nil {
		return oops.Code("DB_MIGRATE").Wrapf(err, "auto-migrate")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
