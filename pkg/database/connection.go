package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dpfaff/lineup-edge/pkg/logger"
)

type DB struct {
	*gorm.DB
}

// NewConnection opens the store described by databaseURL. A postgres:// or
// postgresql:// URL selects the postgres driver; anything else is treated as
// a sqlite file path, which is the local default.
func NewConnection(databaseURL string, isDevelopment bool) (*DB, error) {
	logLevel := gormlogger.Error
	if isDevelopment {
		logLevel = gormlogger.Info
	}

	usePostgres := strings.HasPrefix(databaseURL, "postgres://") ||
		strings.HasPrefix(databaseURL, "postgresql://")

	var dialector gorm.Dialector
	if usePostgres {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Connection pool settings only matter for the server-backed dialect;
	// sqlite serializes writers internally.
	if usePostgres {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithComponent("database").WithField("dialect", dialectName(usePostgres)).Info("Database connection established")

	return &DB{db}, nil
}

func dialectName(usePostgres bool) string {
	if usePostgres {
		return "postgres"
	}
	return "sqlite"
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
