package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps both GORM and sql.DB. GORM is nil for SQLite.
type DB struct {
	*sql.DB
	GORM   *gorm.DB
	Driver string
}

// NewDB opens the settings database for driver ("sqlite" or "postgres")
func NewDB(driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}

	switch driver {
	case DriverSQLite, "":
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func openSQLite(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// one writer keeps sqlite from returning SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		log.Warn().Err(err).Msg("⚠️ Failed to set busy_timeout pragma")
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	log.Info().Str("driver", DriverSQLite).Msg("✅ Settings database connected")
	return &DB{DB: sqlDB, Driver: DriverSQLite}, nil
}

func openPostgres(dsn string) (*DB, error) {
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("driver", DriverPostgres).Msg("✅ Settings database connected (GORM)")
	return &DB{DB: sqlDB, GORM: gormDB, Driver: DriverPostgres}, nil
}

// Close closes the underlying connection pool
func (db *DB) Close() error {
	log.Info().Msg("🔌 Closing database connection...")
	return db.DB.Close()
}
