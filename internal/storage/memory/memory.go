// internal/storage/memory/memory.go
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/pkg/core"
)

// StateFileName is the persisted record inside the output directory.
const StateFileName = "state.json"

// Backend keeps the current flight in memory, persists the record as a JSON
// file and exports the flight log when the session ends.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	track      []core.TrackPoint
	rejections []core.Rejection

	lastExportPath string
	lastSummary    core.FlightSummary
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init creates the output directory.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new flight
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.track = nil
	b.rejections = nil
	return nil
}

// EndSession finalizes and exports the flight log
func (b *Backend) EndSession(summary core.FlightSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if summary.SessionID == "" && b.session != nil {
		summary.SessionID = b.session.ID.String()
	}
	if summary.StartedAt.IsZero() && b.session != nil {
		summary.StartedAt = b.session.StartedAt
	}
	b.lastSummary = summary
	return b.exportJSON()
}

// SaveState writes the record atomically to the state file.
func (b *Backend) SaveState(rec core.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	path := b.statePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}

// LoadState reads the state file.
func (b *Backend) LoadState() (json.RawMessage, error) {
	data, err := os.ReadFile(b.statePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if len(data) == 0 {
		return nil, storage.ErrNoState
	}
	return json.RawMessage(data), nil
}

func (b *Backend) statePath() string {
	return filepath.Join(b.cfg.OutputDir, StateFileName)
}

// RecordTrackPoint appends a sampled position
func (b *Backend) RecordTrackPoint(p *core.TrackPoint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.track = append(b.track, *p)
	return nil
}

// RecordRejection appends a refused command
func (b *Backend) RecordRejection(r *core.Rejection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rejections = append(b.rejections, *r)
	return nil
}

// TrackLen returns the number of recorded track points.
func (b *Backend) TrackLen() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.track)
}

// GetExportedFilePath returns the path of the last export, empty if none.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns the summary of the last exported flight.
func (b *Backend) GetExportMetadata() core.FlightSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSummary
}

var (
	_ storage.Backend    = (*Backend)(nil)
	_ storage.Uploadable = (*Backend)(nil)
)
