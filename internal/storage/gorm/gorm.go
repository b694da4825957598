// Package gormstorage implements the storage.Backend interface on top of GORM
// with internal queues and a background DB writer goroutine. The SQLite and
// Postgres backends embed it and only differ in how the connection is made.
package gormstorage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerostat-sim/airship/internal/database"
	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/internal/model"
	"github.com/aerostat-sim/airship/internal/model/convert"
	"github.com/aerostat-sim/airship/internal/queue"
	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultFlushInterval is how often queued rows are written when unset.
const DefaultFlushInterval = 2 * time.Second

// maxQueued caps buffered rows while the database is unreachable.
const maxQueued = 100000

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	DBLogger      zerolog.Logger
	FlushInterval time.Duration
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	TrackPoints *queue.Queue[model.TrackPoint]
	Rejections  *queue.Queue[model.RejectionEvent]
}

func newQueues() *queues {
	return &queues{
		TrackPoints: queue.NewBounded[model.TrackPoint](maxQueued),
		Rejections:  queue.NewBounded[model.RejectionEvent](maxQueued),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps      Dependencies
	manager   *database.Manager
	queues    *queues
	sessionID atomic.Value // string
	writeMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Manager returns the database manager, valid after Init.
func (b *Backend) Manager() *database.Manager {
	return b.manager
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend: no database connection")
	}

	b.manager = database.NewManager(b.deps.DB, b.deps.DBLogger)
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}
	if b.deps.DB == nil {
		return nil
	}
	b.Flush()
	return nil
}

func (b *Backend) currentSession() string {
	id, _ := b.sessionID.Load().(string)
	return id
}

// StartSession inserts the session row synchronously.
func (b *Backend) StartSession(s *core.Session) error {
	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Where(model.Session{SessionID: row.SessionID}).FirstOrCreate(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	b.sessionID.Store(row.SessionID)
	b.deps.Logger.Info("Session started", "session", row.SessionID, "resumed", s.Resumed)
	return nil
}

// EndSession flushes pending rows, then closes the session row with its
// totals and the track line built from the stored points.
func (b *Backend) EndSession(summary core.FlightSummary) error {
	b.Flush()

	id := summary.SessionID
	if id == "" {
		id = b.currentSession()
	}

	var points []model.TrackPoint
	if err := b.deps.DB.Where("session_id = ?", id).Order("virtual_seconds").Find(&points).Error; err != nil {
		return fmt.Errorf("failed to load track points: %w", err)
	}

	updates := map[string]any{
		"ended_at":        time.Now(),
		"virtual_seconds": summary.VirtualSeconds,
		"distance_meters": summary.DistanceMeters,
		"fuel_burned":     summary.FuelBurned,
	}
	if line, err := geo.TrackLine(convert.TrackPath(points)); err == nil {
		updates["track"] = line
	}

	if err := b.deps.DB.Model(&model.Session{}).Where("session_id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	b.deps.Logger.Info("Session ended", "session", id, "trackPoints", len(points))
	return nil
}

// SaveState upserts the latest record for the current session.
func (b *Backend) SaveState(rec core.SessionRecord) error {
	row, err := convert.RecordToSessionState(b.currentSession(), rec)
	if err != nil {
		return err
	}
	row.SavedAt = time.Now()

	err = b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"saved_at", "position", "record"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// LoadState returns the record of the most recently saved session.
func (b *Backend) LoadState() (json.RawMessage, error) {
	var row model.SessionState
	err := b.deps.DB.Order("saved_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return json.RawMessage(row.Record), nil
}

// RecordTrackPoint converts and queues a track point.
func (b *Backend) RecordTrackPoint(p *core.TrackPoint) error {
	b.queues.TrackPoints.Push(convert.CoreToTrackPoint(*p))
	return nil
}

// RecordRejection converts and queues a rejection for the current session.
func (b *Backend) RecordRejection(r *core.Rejection) error {
	b.queues.Rejections.Push(convert.CoreToRejectionEvent(b.currentSession(), *r))
	return nil
}

// QueueLengths reports pending rows per queue.
func (b *Backend) QueueLengths() map[string]int {
	return map[string]int{
		"trackPoints": b.queues.TrackPoints.Len(),
		"rejections":  b.queues.Rejections.Len(),
	}
}

// Flush writes all queued rows now.
func (b *Backend) Flush() {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	writeQueue(b.deps.DB, b.queues.TrackPoints, "track points", b.deps.Logger)
	writeQueue(b.deps.DB, b.queues.Rejections, "rejections", b.deps.Logger)
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error writing queue", "queue", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Requeue(items...)
		return
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Error committing queue", "queue", name, "error", err)
		q.Requeue(items...)
	}
}

// writerLoop periodically drains queues into the DB.
func (b *Backend) writerLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.Flush()
		}
	}
}
