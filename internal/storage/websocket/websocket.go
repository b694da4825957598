package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/pkg/core"
	"github.com/aerostat-sim/airship/pkg/streaming"
)

// DefaultSnapshotInterval throttles live snapshots when unset.
const DefaultSnapshotInterval = time.Second

// Config holds WebSocket backend configuration.
type Config struct {
	URL              string
	Secret           string
	SnapshotInterval time.Duration
}

// Backend streams flight data over WebSocket to the web server.
// It implements storage.Backend and engine.Observer but not storage.Uploadable.
// The server owns persistence, so LoadState always reports ErrNoState.
type Backend struct {
	conn      *connection
	cfg       Config
	sessionID atomic.Value // string

	snapMu   sync.Mutex
	lastSnap time.Time
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}
	return &Backend{
		conn: newConnection(logger.With("component", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

func (b *Backend) currentSession() string {
	id, _ := b.sessionID.Load().(string)
	return id
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartSession announces the session and waits for server ack.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{
		SessionID: s.ID.String(),
		StartedAt: s.StartedAt.UnixMilli(),
		StartLat:  s.StartLat,
		StartLng:  s.StartLng,
		Resumed:   s.Resumed,
	})
	if err != nil {
		return err
	}

	b.sessionID.Store(s.ID.String())

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.cachedState = nil
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session with the totals and waits for server ack.
func (b *Backend) EndSession(summary core.FlightSummary) error {
	if summary.SessionID == "" {
		summary.SessionID = b.currentSession()
	}
	data, err := marshalEnvelope(streaming.TypeEndSession, streaming.EndSessionPayload{
		SessionID:      summary.SessionID,
		VirtualSeconds: summary.VirtualSeconds,
		DistanceMeters: summary.DistanceMeters,
		FuelBurned:     summary.FuelBurned,
	})
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.cachedState = nil
	b.conn.mu.Unlock()

	return err
}

// SaveState streams the record and keeps it for reconnect replay.
func (b *Backend) SaveState(rec core.SessionRecord) error {
	data, err := marshalEnvelope(streaming.TypeState, streaming.StatePayload{
		SessionID: b.currentSession(),
		Record:    rec,
	})
	if err != nil {
		return err
	}
	b.conn.mu.Lock()
	b.conn.cachedState = data
	b.conn.mu.Unlock()

	b.conn.send(data)
	return nil
}

// LoadState is not supported over the stream.
func (b *Backend) LoadState() (json.RawMessage, error) {
	return nil, storage.ErrNoState
}

func (b *Backend) RecordTrackPoint(p *core.TrackPoint) error {
	return b.sendEnvelope(streaming.TypeTrackPoint, streaming.NewTrackPointPayload(*p))
}

func (b *Backend) RecordRejection(r *core.Rejection) error {
	return b.sendEnvelope(streaming.TypeRejection, streaming.RejectionPayload{
		SessionID: b.currentSession(),
		Rejection: *r,
	})
}

// OnSnapshot streams live snapshots at most once per SnapshotInterval of wall time.
func (b *Backend) OnSnapshot(s core.Snapshot) {
	b.snapMu.Lock()
	now := time.Now()
	if now.Sub(b.lastSnap) < b.cfg.SnapshotInterval {
		b.snapMu.Unlock()
		return
	}
	b.lastSnap = now
	b.snapMu.Unlock()

	_ = b.sendEnvelope(streaming.TypeSnapshot, s)
}

// OnRejection is a no-op; rejections arrive through RecordRejection.
func (b *Backend) OnRejection(core.Rejection) {}
