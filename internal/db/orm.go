package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vatpac/internal/logging"
)

// InitPostgresORM opens the GORM connection used by the sector
// occupancy engine and the summarizers, sized the same as the sqlx
// pool since both sides draw from the same database.
func InitPostgresORM(dsn string, poolSize, overflow int) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(poolSize + overflow)
	sqlDB.SetMaxIdleConns(poolSize)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logging.Info("connected to postgres via gorm", "pool_size", poolSize, "overflow", overflow)
	return gdb, nil
}
