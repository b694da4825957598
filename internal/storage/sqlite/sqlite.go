// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend via composition. The only SQLite-specific concerns are
// creating the in-memory DB, restoring it from the last dump, and the periodic dump.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aerostat-sim/airship/internal/database"
	"github.com/aerostat-sim/airship/internal/model"
	gormstorage "github.com/aerostat-sim/airship/internal/storage/gorm"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path         string        // dump file, also restored from on start
	DumpInterval time.Duration // 0 writes straight to Path instead of memory
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *slog.Logger
	inMemory bool
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger *slog.Logger, dbLogger zerolog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inMemory := cfg.DumpInterval > 0

	dsn := cfg.Path
	if inMemory {
		// each backend gets its own shared-cache memory database
		dsn = fmt.Sprintf("file:airship-%s?mode=memory&cache=shared", uuid.NewString())
	}
	db, err := database.GetSqliteDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:       db,
			Logger:   logger.With("component", "sqlite"),
			DBLogger: dbLogger,
		}),
		db:       db,
		cfg:      cfg,
		log:      logger.With("component", "sqlite"),
		inMemory: inMemory,
	}, nil
}

// Init initializes the embedded GORM backend, restores the last dump and
// starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if !b.inMemory {
		return nil
	}

	if err := b.restore(); err != nil {
		b.log.Warn("Could not restore previous dump", "path", b.cfg.Path, "error", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.dumpLoop()
	return nil
}

// Close stops the dump goroutine, closes the embedded GORM backend and
// writes a final dump.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	if err := b.Backend.Close(); err != nil {
		return err
	}
	if b.inMemory {
		if err := b.Backend.Manager().DumpToDisk(b.cfg.Path); err != nil {
			return fmt.Errorf("final dump: %w", err)
		}
	}
	return nil
}

// restore copies every table of the dump file into the memory database.
func (b *Backend) restore() error {
	if _, err := os.Stat(b.cfg.Path); os.IsNotExist(err) {
		return nil
	}
	if strings.Contains(b.cfg.Path, "'") {
		return fmt.Errorf("invalid sqlite file path: %q", b.cfg.Path)
	}

	return b.db.Connection(func(tx *gorm.DB) error {
		if err := tx.Exec("ATTACH DATABASE 'file:" + b.cfg.Path + "' AS disk;").Error; err != nil {
			return fmt.Errorf("attaching dump: %w", err)
		}
		defer tx.Exec("DETACH DATABASE disk;")

		for _, m := range model.DatabaseModels {
			table := m.(interface{ TableName() string }).TableName()
			if err := tx.Exec("DELETE FROM main." + table + ";").Error; err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
			if err := tx.Exec("INSERT INTO main." + table + " SELECT * FROM disk." + table + ";").Error; err != nil {
				return fmt.Errorf("restoring %s: %w", table, err)
			}
		}
		b.log.Info("Restored previous dump", "path", b.cfg.Path)
		return nil
	})
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.Backend.Flush()
			if err := b.Backend.Manager().DumpToDisk(b.cfg.Path); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			}
		}
	}
}
