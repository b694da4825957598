// Package wind models the process-wide wind field.
package wind

import (
	"math"
	"math/rand/v2"

	"github.com/aerostat-sim/airship/internal/geo"
	"github.com/aerostat-sim/airship/pkg/core"
)

// UpdateInterval is the virtual-time cadence of automatic wind changes, in seconds.
const UpdateInterval = 60.0

const (
	jumpChance        = 0.1
	smoothForceSpread = 0.3 // uniform(-0.15, +0.15)
	smoothDirSpread   = 8.0 // uniform(-4, +4)
	gustForceSpread   = 0.6
	gustDirSpread     = 15.0
)

var mpsScale = [13]float64{0, 0.5, 1.6, 3.4, 5.5, 8.0, 10.8, 13.9, 17.2, 20.8, 24.5, 28.5, 32.7}

// forceWeights favours calm over storm; index is the force level.
var forceWeights = [13]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1.5, 1, 0.5, 0.2}

// Source yields uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// NewSource returns a seeded source. A zero seed draws a random seed.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// BeaufortToMps maps a force value to wind speed in m/s.
func BeaufortToMps(force float64) float64 {
	idx := int(math.Round(force))
	if idx < 0 {
		idx = 0
	}
	if idx > 12 {
		idx = 12
	}
	return mpsScale[idx]
}

// Model owns the wind state and its automatic evolution.
type Model struct {
	state      core.WindState
	lastUpdate float64
	rng        Source
}

// New creates a calm wind in auto mode.
func New(rng Source) *Model {
	if rng == nil {
		rng = NewSource(0)
	}
	return &Model{
		state: core.WindState{Mode: core.WindAuto},
		rng:   rng,
	}
}

// State returns a copy of the current wind.
func (m *Model) State() core.WindState {
	return m.state
}

// LastUpdate is the virtual time of the last automatic change.
func (m *Model) LastUpdate() float64 {
	return m.lastUpdate
}

// Restore replaces the wind state, e.g. from a saved session.
func (m *Model) Restore(s core.WindState, lastUpdate float64) {
	if _, ok := core.ParseWindMode(string(s.Mode)); !ok {
		s.Mode = core.WindAuto
	}
	m.state = core.WindState{
		Force:     clampForce(s.Force),
		Direction: geo.NormalizeDegrees(s.Direction),
		Mode:      s.Mode,
	}
	m.lastUpdate = lastUpdate
}

// SpeedMps is the current wind speed in m/s.
func (m *Model) SpeedMps() float64 {
	return BeaufortToMps(m.state.Force)
}

// SetMode switches between automatic and manual wind.
func (m *Model) SetMode(mode core.WindMode) {
	m.state.Mode = mode
}

// SetManual sets force and direction directly, clamping and normalizing them.
func (m *Model) SetManual(force, direction float64) {
	m.state.Force = clampForce(force)
	m.state.Direction = geo.NormalizeDegrees(direction)
}

// Randomize applies a one-shot gust around the current wind.
func (m *Model) Randomize() {
	m.state.Force = clampForce(m.state.Force + (m.rng.Float64()-0.5)*gustForceSpread)
	m.state.Direction = geo.NormalizeDegrees(m.state.Direction + (m.rng.Float64()-0.5)*gustDirSpread)
}

// StepAuto advances the wind when at least UpdateInterval virtual seconds
// have passed since the last change. It reports whether an update fired.
// Manual mode never changes.
func (m *Model) StepAuto(elapsed float64) bool {
	if m.state.Mode != core.WindAuto {
		return false
	}
	if elapsed-m.lastUpdate < UpdateInterval {
		return false
	}

	changed := false
	if m.rng.Float64() < jumpChance {
		m.state.Direction = math.Floor(m.rng.Float64() * 360)
		changed = true
	}
	if m.rng.Float64() < jumpChance {
		m.state.Force = float64(m.sampleForce())
		changed = true
	}
	if !changed {
		m.state.Force += (m.rng.Float64() - 0.5) * smoothForceSpread
		m.state.Direction += (m.rng.Float64() - 0.5) * smoothDirSpread
	}

	m.state.Force = clampForce(m.state.Force)
	m.state.Direction = geo.NormalizeDegrees(m.state.Direction)
	m.lastUpdate = elapsed
	return true
}

func (m *Model) sampleForce() int {
	total := 0.0
	for _, w := range forceWeights {
		total += w
	}
	r := m.rng.Float64() * total
	for i, w := range forceWeights {
		if r < w {
			return i
		}
		r -= w
	}
	return 0
}

func clampForce(f float64) float64 {
	return math.Max(0, math.Min(core.MaxWindForce, f))
}
