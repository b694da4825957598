// Package engine owns the vehicle and wind state and advances them one tick at a time.
//
// An Engine is passive: the caller supplies wall-clock dt on every Tick and
// delivers commands between ticks from the same goroutine.
package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/aerostat-sim/airship/internal/autopilot"
	"github.com/aerostat-sim/airship/internal/dynamics"
	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/internal/perf"
	"github.com/aerostat-sim/airship/internal/wind"
	"github.com/aerostat-sim/airship/pkg/core"
)

const (
	// FastBrakeSpeed is the speed in km/h under which fast-brake disengages.
	FastBrakeSpeed = 5.0
	// AnchorSpeed is the ground speed in km/h above which the anchor cannot be dropped.
	AnchorSpeed = 5.0
	// ETASpeed is the ground speed in km/h below which no ETA is given.
	ETASpeed = 5.0

	maxFuelHours = 24.0
)

// TimeWarps lists the accepted time-warp factors.
var TimeWarps = []float64{0.1, 1, 2, 5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 1000}

// ValidTimeWarp reports whether f is one of TimeWarps.
func ValidTimeWarp(f float64) bool {
	for _, w := range TimeWarps {
		if w == f {
			return true
		}
	}
	return false
}

// Observer receives the snapshot after every tick and every rejected command.
type Observer interface {
	OnSnapshot(s core.Snapshot)
	OnRejection(r core.Rejection)
}

// Option configures an Engine.
type Option func(*Engine)

// WithWindSource injects the random source used by the wind model.
func WithWindSource(src wind.Source) Option {
	return func(e *Engine) { e.windSrc = src }
}

// WithWind restores a saved wind state.
func WithWind(s core.WindState, lastUpdate float64) Option {
	return func(e *Engine) {
		e.windState = &s
		e.vehicle.WindLastVirtualUpdate = lastUpdate
	}
}

// WithTimeWarp sets the initial time-warp factor. Invalid values are ignored.
func WithTimeWarp(f float64) Option {
	return func(e *Engine) {
		if ValidTimeWarp(f) {
			e.timeWarp = f
		}
	}
}

// WithObserver subscribes an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithClock overrides the wall clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for rejections and state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine is the tick orchestrator. It is not safe for concurrent use.
type Engine struct {
	vehicle  core.VehicleState
	wind     *wind.Model
	timeWarp float64
	paused   bool
	ticks    uint64

	windSrc   wind.Source
	windState *core.WindState

	observers []Observer
	now       func() time.Time
	log       *slog.Logger
	metrics   *metrics
}

// New creates an engine around an existing vehicle state.
func New(v core.VehicleState, opts ...Option) *Engine {
	e := &Engine{
		vehicle:  v,
		timeWarp: 1,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.wind = wind.New(e.windSrc)
	if e.windState != nil {
		e.wind.Restore(*e.windState, e.vehicle.WindLastVirtualUpdate)
	} else {
		e.wind.Restore(core.WindState{Mode: core.WindAuto}, e.vehicle.WindLastVirtualUpdate)
	}
	if e.vehicle.VirtualStart.IsZero() {
		e.vehicle.VirtualStart = e.now()
	}

	e.metrics = newMetrics(e.log)
	return e
}

// Spawn creates a fresh anchored vehicle with an empty tank at lat/lng.
func Spawn(lat, lng float64, opts ...Option) (*Engine, error) {
	if !geo.ValidLatLng(lat, lng) {
		return nil, geo.ErrInvalidCoordinates
	}
	e := New(core.VehicleState{}, opts...)
	e.vehicle = core.Spawn(lat, lng, e.now())
	e.wind.Restore(e.wind.State(), 0)
	return e, nil
}

// Subscribe adds an observer after construction.
func (e *Engine) Subscribe(o Observer) {
	e.observers = append(e.observers, o)
}

// Vehicle returns a copy of the vehicle state.
func (e *Engine) Vehicle() core.VehicleState {
	return e.vehicle
}

// Wind returns a copy of the wind state.
func (e *Engine) Wind() core.WindState {
	return e.wind.State()
}

// TimeWarp returns the current time-warp factor.
func (e *Engine) TimeWarp() float64 {
	return e.timeWarp
}

// Paused reports whether ticks are currently ignored.
func (e *Engine) Paused() bool {
	return e.paused
}

// Tick advances the simulation by wall-clock dt scaled by the time warp.
// While paused nothing changes and nothing is published.
func (e *Engine) Tick(wall time.Duration) {
	if e.paused || wall <= 0 {
		return
	}
	dt := wall.Seconds() * e.timeWarp
	v := &e.vehicle

	if v.FuelReserve <= 0 {
		v.Throttle = 0
		v.EnginePower = 0
		v.Speed = 0
		v.GroundSpeed = 0
	}

	v.VirtualElapsedSeconds += dt

	if e.wind.StepAuto(v.VirtualElapsedSeconds) {
		v.WindLastVirtualUpdate = e.wind.LastUpdate()
		e.log.Debug("wind changed", "force", e.wind.State().Force, "direction", e.wind.State().Direction)
	}

	if v.FastBrakeEnabled {
		if v.Speed > FastBrakeSpeed {
			v.Throttle = core.MinThrottle
		} else {
			v.FastBrakeEnabled = false
			v.Throttle = 0
		}
	}

	if v.AutopilotEnabled {
		autopilot.Apply(v)
	}

	burned := dynamics.Propel(v, dt)
	dynamics.Steer(v, dt)
	dynamics.SpinPropeller(v, dt)

	moved := e.integratePosition(dt)
	v.TotalDistanceMeters += moved

	e.ticks++
	e.metrics.tick(dt, burned, moved)
	e.publish()
}

// integratePosition composes wind with body velocity and moves the vehicle.
// It returns the distance credited to the odometer.
func (e *Engine) integratePosition(dt float64) float64 {
	v := &e.vehicle
	if v.AnchorEnabled {
		v.GroundSpeed = v.Speed
	} else {
		ws := e.wind.SpeedMps()
		dir := e.wind.State().Direction
		driftE, driftN := geo.Components(ws*dt, dir)
		v.Lat, v.Lng = geo.Drift(v.Lat, v.Lng, driftE, driftN)
		v.GroundSpeed = GroundSpeed(v.Speed, v.Heading, ws, dir)
	}

	meters := math.Abs(v.GroundSpeed) * dt / 3600 * 1000
	s := sign(v.Speed)
	east, north := geo.Components(meters*s, v.Heading)
	v.Lat, v.Lng = geo.Offset(v.Lat, v.Lng, east, north)
	return meters
}

// GroundSpeed composes body speed (km/h) along heading with the wind vector
// (m/s toward direction). The magnitude is signed by its projection on the heading.
func GroundSpeed(speedKmh, heading, windMps, windDir float64) float64 {
	shipE, shipN := geo.Components(speedKmh/3.6, heading)
	windE, windN := geo.Components(windMps, windDir)
	totalE, totalN := shipE+windE, shipN+windN

	kmh := math.Hypot(totalE, totalN) * 3.6
	hE, hN := geo.Components(1, heading)
	if totalE*hE+totalN*hN >= 0 {
		return kmh
	}
	return -kmh
}

// Snapshot builds the read-only view of the current state.
func (e *Engine) Snapshot() core.Snapshot {
	v := e.vehicle
	s := core.Snapshot{
		Tick:          e.ticks,
		Time:          e.now(),
		Paused:        e.paused,
		TimeWarp:      e.timeWarp,
		Vehicle:       v,
		Wind:          e.wind.State(),
		WindSpeedMps:  e.wind.SpeedMps(),
		PropellerRPM:  dynamics.PropellerRPM(v.EnginePower),
		ThrottleLabel: core.ThrottleLabel(v.Throttle),
	}
	s.FuelTimeRemaining, s.FuelUnbounded = FuelTimeRemaining(v.FuelReserve, v.EnginePower)

	if v.HasTarget {
		bearing := geo.Bearing(v.Lat, v.Lng, v.TargetLat, v.TargetLng)
		nav := &core.Navigation{
			TargetLat:       v.TargetLat,
			TargetLng:       v.TargetLng,
			Bearing:         bearing,
			DistanceMeters:  geo.Distance(v.Lat, v.Lng, v.TargetLat, v.TargetLng),
			CourseDeviation: geo.HeadingError(bearing, v.Heading),
		}
		if gs := math.Abs(v.GroundSpeed); gs > ETASpeed {
			nav.ETA = time.Duration(nav.DistanceMeters / (gs / 3.6) * float64(time.Second))
			nav.ETAKnown = true
		}
		s.Navigation = nav
	}
	return s
}

// FuelTimeRemaining estimates endurance at the given power.
// Unbounded is reported for idle power or estimates beyond 24 hours.
func FuelTimeRemaining(reserve, power float64) (time.Duration, bool) {
	if reserve <= 0 {
		return 0, false
	}
	p := math.Abs(power)
	if p < 0.1 {
		return 0, true
	}
	rate := perf.FuelRate(p)
	if rate <= 0 {
		return 0, true
	}
	hours := reserve / rate
	if hours > maxFuelHours {
		return 0, true
	}
	return time.Duration(hours * float64(time.Hour)), false
}

func (e *Engine) publish() {
	if len(e.observers) == 0 {
		return
	}
	snap := e.Snapshot()
	for _, o := range e.observers {
		o.OnSnapshot(snap)
	}
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
