package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
// psql command lines and quoted connection strings are accepted.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	normalized := NormalizeDSN(dsn)
	if normalized == "" {
		return nil, fmt.Errorf("Database not configured")
	}

	db, err := gorm.Open(postgres.Open(normalized), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}
