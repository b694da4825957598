// internal/storage/storage_test.go
package storage_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/stretchr/testify/assert"
)

type nopBackend struct{}

func (nopBackend) Init() error                             { return nil }
func (nopBackend) Close() error                            { return nil }
func (nopBackend) StartSession(*core.Session) error        { return nil }
func (nopBackend) EndSession(core.FlightSummary) error     { return nil }
func (nopBackend) SaveState(core.SessionRecord) error      { return nil }
func (nopBackend) LoadState() (json.RawMessage, error)     { return nil, storage.ErrNoState }
func (nopBackend) RecordTrackPoint(*core.TrackPoint) error { return nil }
func (nopBackend) RecordRejection(*core.Rejection) error   { return nil }

var _ storage.Backend = nopBackend{}

func TestErrNoState_Wrapped(t *testing.T) {
	_, err := nopBackend{}.LoadState()
	wrapped := fmt.Errorf("loading: %w", err)
	assert.True(t, errors.Is(wrapped, storage.ErrNoState))
}
