// internal/storage/storage.go
package storage

import (
	"encoding/json"
	"errors"

	"github.com/aerostat-sim/airship/pkg/core"
)

// ErrNoState is returned by LoadState when nothing has been saved yet.
var ErrNoState = errors.New("no saved state")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession(summary core.FlightSummary) error

	// Persisted record. LoadState returns the raw record of the most
	// recently saved session so the caller can decode it leniently.
	SaveState(rec core.SessionRecord) error
	LoadState() (json.RawMessage, error)

	// Flight recording
	RecordTrackPoint(p *core.TrackPoint) error
	RecordRejection(r *core.Rejection) error
}

// Uploadable is an optional interface for storage backends that produce
// flight log files suitable for upload to the web frontend.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.FlightSummary
}
