// Package postgres implements the storage.Backend interface on PostgreSQL by
// embedding the GORM backend. It owns connecting and the PostGIS extension.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/database"
	gormstorage "github.com/aerostat-sim/airship/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB       *gorm.DB // injected connection, if nil one is opened from Config
	Config   config.DBConfig
	Logger   *slog.Logger
	DBLogger zerolog.Logger
}

// Backend implements storage.Backend using GORM/PostgreSQL with queue-based batch writes.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new Postgres storage backend. No connection is made until Init.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "postgres")
	return &Backend{deps: deps}
}

// Init connects if needed, ensures PostGIS and starts the embedded GORM backend.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		db, err := database.GetPostgresDB(b.deps.Config)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = db
	}

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:       b.deps.DB,
		Logger:   b.deps.Logger,
		DBLogger: b.deps.DBLogger,
	})

	if b.deps.DB.Name() == "postgres" {
		if err := b.deps.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
			b.deps.Logger.Warn("PostGIS extension unavailable, geometry stays WKB", "error", err)
		} else {
			b.deps.Logger.Info("PostGIS Extension created")
		}
	}

	return b.Backend.Init()
}

// Close stops the embedded backend if it was started.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	return b.Backend.Close()
}
