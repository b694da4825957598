// Package worker owns the engine goroutine: it drives ticks from a wall clock,
// serializes operator commands between ticks and feeds the storage backend.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aerostat-sim/airship/internal/config"
	"github.com/aerostat-sim/airship/internal/engine"
	"github.com/aerostat-sim/airship/internal/handlers"
	"github.com/aerostat-sim/airship/internal/logging"
	"github.com/aerostat-sim/airship/internal/session"
	"github.com/aerostat-sim/airship/internal/storage"
	"github.com/aerostat-sim/airship/pkg/core"
)

// maxWallStep caps the wall-clock dt of one tick after a stalled process.
const maxWallStep = time.Second

var (
	// ErrStopped is returned by Submit once Run has returned.
	ErrStopped = errors.New("worker stopped")
	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("worker already running")
)

// Telemetry receives a snapshot with every autosave.
type Telemetry interface {
	WriteSnapshot(s core.Snapshot) error
}

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Engine     *engine.Engine
	Handlers   *handlers.Service
	Logger     *slog.Logger
	SimContext *logging.SimContext
	Telemetry  Telemetry
	Config     config.SimConfig
	Clock      func() time.Time
}

type request struct {
	fn   func(*engine.Engine)
	done chan struct{}
}

// Manager runs the simulation loop. Everything that touches the engine runs
// on the Run goroutine, or on the caller's goroutine before Run starts and
// after it returns.
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	eng     *engine.Engine

	requests chan request
	stopped  chan struct{}
	running  atomic.Bool

	session   *core.Session
	last      time.Time
	lastSave  time.Time
	lastTrack time.Time
	rejected  *core.Rejection

	latest atomic.Pointer[core.Snapshot]
	saves  atomic.Int64
	points atomic.Int64
}

// NewManager creates a new worker manager and subscribes it to the engine.
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Handlers == nil {
		deps.Handlers = handlers.NewService(handlers.Dependencies{Logger: deps.Logger})
	}
	if deps.Config.TickInterval <= 0 {
		deps.Config.TickInterval = 50 * time.Millisecond
	}

	m := &Manager{
		deps:     deps,
		backend:  backend,
		eng:      deps.Engine,
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
	now := deps.Clock()
	m.last, m.lastSave = now, now

	deps.Engine.Subscribe(m)
	m.store(deps.Engine.Snapshot())
	return m
}

func (m *Manager) now() time.Time {
	return m.deps.Clock()
}

// Run fires a tick every TickInterval until ctx is done, then saves once more.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(m.stopped)

	ticker := time.NewTicker(m.deps.Config.TickInterval)
	defer ticker.Stop()

	m.last = m.now()
	m.deps.Logger.Info("simulation loop started", "tickInterval", m.deps.Config.TickInterval)

	for {
		select {
		case <-ctx.Done():
			m.save()
			m.deps.Logger.Info("simulation loop stopped", "ticks", m.latestTick())
			return nil
		case req := <-m.requests:
			req.fn(m.eng)
			m.store(m.eng.Snapshot())
			close(req.done)
		case <-ticker.C:
			m.Step(m.now())
		}
	}
}

// Submit runs fn on the simulation goroutine between two ticks and waits for it.
func (m *Manager) Submit(ctx context.Context, fn func(*engine.Engine)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case m.requests <- req:
	case <-m.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-req.done
	return nil
}

// Step advances the engine to now. The wall delta is always re-based, so a
// pause drops the time spent paused instead of replaying it on resume.
func (m *Manager) Step(now time.Time) {
	wall := now.Sub(m.last)
	m.last = now
	if wall > maxWallStep {
		wall = maxWallStep
	}

	m.eng.Tick(wall)

	if !m.eng.Paused() && m.deps.Config.TrackInterval > 0 &&
		(m.lastTrack.IsZero() || now.Sub(m.lastTrack) >= m.deps.Config.TrackInterval) {
		m.lastTrack = now
		m.recordTrack(now)
	}
	if m.deps.Config.SaveInterval > 0 && now.Sub(m.lastSave) >= m.deps.Config.SaveInterval {
		m.lastSave = now
		m.save()
	}
}

func (m *Manager) recordTrack(now time.Time) {
	v := m.eng.Vehicle()
	w := m.eng.Wind()
	p := &core.TrackPoint{
		Time:           now,
		VirtualSeconds: v.VirtualElapsedSeconds,
		Lat:            v.Lat,
		Lng:            v.Lng,
		Heading:        v.Heading,
		Speed:          v.Speed,
		GroundSpeed:    v.GroundSpeed,
		EnginePower:    v.EnginePower,
		FuelReserve:    v.FuelReserve,
		WindForce:      w.Force,
		WindDirection:  w.Direction,
	}
	if m.session != nil {
		p.SessionID = m.session.ID
	}
	if err := m.backend.RecordTrackPoint(p); err != nil {
		m.deps.Logger.Warn("recording track point", "error", err)
		return
	}
	m.points.Add(1)
}

// save persists the current record and forwards a telemetry snapshot.
func (m *Manager) save() {
	rec := session.Encode(m.eng.Vehicle(), m.eng.Wind(), m.eng.TimeWarp())
	if err := m.backend.SaveState(rec); err != nil {
		m.deps.Logger.Warn("autosave failed", "error", err)
	} else {
		m.saves.Add(1)
	}
	if m.deps.Telemetry != nil {
		if err := m.deps.Telemetry.WriteSnapshot(m.eng.Snapshot()); err != nil {
			m.deps.Logger.Warn("writing telemetry", "error", err)
		}
	}
}

// OnSnapshot keeps the latest snapshot for readers on other goroutines.
func (m *Manager) OnSnapshot(s core.Snapshot) {
	m.store(s)
}

// OnRejection records refused commands.
func (m *Manager) OnRejection(r core.Rejection) {
	m.rejected = &r
	if err := m.backend.RecordRejection(&r); err != nil {
		m.deps.Logger.Warn("recording rejection", "error", err)
	}
}

func (m *Manager) store(s core.Snapshot) {
	m.latest.Store(&s)
	if m.deps.SimContext != nil {
		m.deps.SimContext.SetVirtualSeconds(s.Vehicle.VirtualElapsedSeconds)
	}
}

// Snapshot returns the most recent snapshot. Safe for concurrent use.
func (m *Manager) Snapshot() core.Snapshot {
	return *m.latest.Load()
}

func (m *Manager) latestTick() uint64 {
	return m.Snapshot().Tick
}

// Stats reports autosaves and track points written so far.
func (m *Manager) Stats() (saves, trackPoints int64) {
	return m.saves.Load(), m.points.Load()
}

// StartSession registers the session with the backend and the log context.
func (m *Manager) StartSession(s *core.Session) error {
	m.session = s
	if m.deps.SimContext != nil {
		m.deps.SimContext.SetSession(s.ID.String())
	}
	return m.backend.StartSession(s)
}

// Summary describes the flight so far. Call it from the simulation goroutine
// or after Run has returned.
func (m *Manager) Summary() core.FlightSummary {
	v := m.eng.Vehicle()
	out := core.FlightSummary{
		VirtualSeconds: v.VirtualElapsedSeconds,
		DistanceMeters: v.TotalDistanceMeters,
		FuelBurned:     v.TotalFuelBurned,
	}
	if m.session != nil {
		out.SessionID = m.session.ID.String()
		out.StartedAt = m.session.StartedAt
	}
	return out
}

// EndSession closes the session in the backend. Call it after Run has returned.
func (m *Manager) EndSession() error {
	return m.backend.EndSession(m.Summary())
}

// QueueLengthProvider is an optional interface for backends with write queues.
type QueueLengthProvider interface {
	QueueLengths() map[string]int
}

// QueueLengths returns pending writes per queue, or nil if the backend has none.
func (m *Manager) QueueLengths() map[string]int {
	if p, ok := m.backend.(QueueLengthProvider); ok {
		return p.QueueLengths()
	}
	return nil
}
