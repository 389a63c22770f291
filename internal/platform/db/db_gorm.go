// Package db opens the SQL database used by the gorm observation store.
package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	priceadapters "pricewatch_backend/internal/feature/prices/adapters"
	"pricewatch_backend/internal/shared/env"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// retryInterval is the pause between connection attempts.
	retryInterval = 3 * time.Second
)

// Config holds database connection settings.
type Config struct {
	Driver     string // "postgres" or "sqlite"
	DSN        string // Full DSN; overrides the individual fields below
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	Migrate    bool // Run AutoMigrate after connecting
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() Config {
	driver := env.String("STORE_DRIVER", DriverSQLite)
	return Config{
		Driver:     driver,
		DSN:        env.String("DB_DSN", ""),
		SQLitePath: env.String("SQLITE_PATH", "data/prices.db"),
		Host:       env.String("DB_HOST", "localhost"),
		Port:       env.String("DB_PORT", "5432"),
		User:       env.String("DB_USER", ""),
		Password:   env.String("DB_PASSWORD", ""),
		Name:       env.String("DB_NAME", "pricewatch"),
		SSLMode:    env.String("DB_SSLMODE", "disable"),
		Migrate:    env.String("RUN_MIGRATIONS", "true") == "true",
	}
}

// BuildDSN returns the connection string for cfg.
func BuildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == DriverSQLite {
		return cfg.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor returns the gorm opener of driver.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{})
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %v: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB connects using cfg and migrates the observation table when asked.
func OpenDB(cfg Config) (*gorm.DB, error) {
	open, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite && cfg.DSN == "" && cfg.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), 60*time.Second, open)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := db.AutoMigrate(&priceadapters.ObservationModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return db, nil
}
