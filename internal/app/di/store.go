// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"log/slog"

	priceadapters "pricewatch_backend/internal/feature/prices/adapters"
	"pricewatch_backend/internal/feature/prices/usecase"
	"pricewatch_backend/internal/platform/db"
	"pricewatch_backend/internal/shared/env"
)

// StoreFile selects the JSON file store.
const StoreFile = "file"

// StoreConfig selects and configures the observation store.
type StoreConfig struct {
	Driver  string // "file", "sqlite" or "postgres"
	DataDir string // Directory of the file store
	DB      db.Config
}

// LoadStoreConfig loads store configuration from environment variables.
func LoadStoreConfig() StoreConfig {
	cfg := StoreConfig{
		Driver:  env.String("STORE_DRIVER", StoreFile),
		DataDir: env.String("DATA_DIR", "data"),
	}
	if cfg.Driver != StoreFile {
		cfg.DB = db.LoadConfigFromEnv()
		cfg.DB.Driver = cfg.Driver
	}
	return cfg
}

// NewObservationStore creates the store named by cfg.Driver. The returned
// close function releases the underlying connection, if any.
func NewObservationStore(cfg StoreConfig) (usecase.ObservationStore, func(), error) {
	switch cfg.Driver {
	case "", StoreFile:
		fs, err := priceadapters.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using file store", "dir", cfg.DataDir)
		return fs, func() {}, nil
	case db.DriverSQLite, db.DriverPostgres:
		gdb, err := db.OpenDB(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using sql store", "driver", cfg.Driver)
		closeFn := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					slog.Error("failed to close database", "error", err)
				}
			}
		}
		return priceadapters.NewGormStore(gdb), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
