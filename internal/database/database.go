package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/motorserv/srf-api/internal/config"
	"github.com/motorserv/srf-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection. Unique violations surface
// as gorm.ErrDuplicatedKey.
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
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

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return db, nil
}

// HealthCheck pings the database with a short timeout.
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// HealthCheckWithStats pings the database and returns pool statistics.
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	if err := HealthCheck(db); err != nil {
		return sql.DBStats{}, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Models lists every persisted type. Schema is owned by the goose migrations;
// AutoMigrate is for tests and local development only.
func Models() []interface{} {
	return []interface{}{
		&domain.Master{},
		&domain.Model{},
		&domain.RewindingRate{},
		&domain.ServiceCenter{},
		&domain.ComplaintNumber{},
		&domain.CGSRFNumber{},
		&domain.User{},
		&domain.Warranty{},
		&domain.OutOfWarranty{},
		&domain.AuditLog{},
		&domain.LedgerExport{},
	}
}

// AutoMigrate runs automatic migrations (for development only)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
